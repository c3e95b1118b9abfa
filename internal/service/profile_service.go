package service

import (
	"errors"
	"strings"

	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
)

type ProfileService struct {
	profileRepo repository.ProfileRepositoryInterface
}

func NewProfileService(profileRepo repository.ProfileRepositoryInterface) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

type UpdateProfileInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func (s *ProfileService) IsUsernameAvailable(username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, errors.New("username cannot be empty")
	}

	_, err := s.profileRepo.FindByUsername(username)
	if err != nil {
		// Username not found = available
		return true, nil
	}
	return false, nil
}

func (s *ProfileService) UpdateProfile(profileID uint, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.FindByID(profileID)
	if err != nil {
		return nil, ErrProfileNotFound
	}

	if input.Username != "" {
		username := strings.TrimSpace(input.Username)

		// Only check availability if username is different
		if username != profile.Username {
			available, err := s.IsUsernameAvailable(username)
			if err != nil {
				return nil, err
			}
			if !available {
				return nil, errors.New("username already taken")
			}
			profile.Username = username
		}
	}

	if input.DisplayName != "" {
		profile.DisplayName = strings.TrimSpace(input.DisplayName)
	}

	if err := s.profileRepo.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) GetProfileByID(profileID uint) (*models.Profile, error) {
	return s.profileRepo.FindByID(profileID)
}

func (s *ProfileService) GetProfileByUsername(username string) (*models.Profile, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}
	return s.profileRepo.FindByUsername(username)
}

func (s *ProfileService) SearchProfiles(query string, limit int) ([]models.Profile, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []models.Profile{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.profileRepo.SearchProfiles(query, limit)
}
