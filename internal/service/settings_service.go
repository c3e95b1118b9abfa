package service

import (
	"errors"

	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
	"gorm.io/gorm"
)

type SettingsService struct {
	settingsRepo repository.SettingsRepositoryInterface
	profileRepo  repository.ProfileRepositoryInterface
}

func NewSettingsService(
	settingsRepo repository.SettingsRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, profileRepo: profileRepo}
}

// GetSettings returns stored drawing-input settings, or the defaults when
// the profile has never saved any.
func (s *SettingsService) GetSettings(profileID uint) (*models.ProfileSettings, error) {
	settings, err := s.settingsRepo.Get(profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultProfileSettings(profileID)
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

type UpdateSettingsInput struct {
	DefaultInputMethod models.InputMethod `json:"default_input_method"`
	SendOnPenUp        bool               `json:"send_on_pen_up"`
}

func (s *SettingsService) UpdateSettings(profileID uint, input UpdateSettingsInput) (*models.ProfileSettings, error) {
	if _, err := s.profileRepo.FindByID(profileID); err != nil {
		return nil, ErrProfileNotFound
	}
	if input.DefaultInputMethod != models.KeyboardInput && input.DefaultInputMethod != models.CanvasInput {
		return nil, errors.New("invalid input method")
	}

	settings := &models.ProfileSettings{
		ProfileID:          profileID,
		DefaultInputMethod: input.DefaultInputMethod,
		SendOnPenUp:        input.SendOnPenUp,
	}
	if err := s.settingsRepo.Upsert(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
