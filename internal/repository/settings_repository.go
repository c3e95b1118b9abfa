package repository

import (
	"github.com/qrac-app/draw-chat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(profileID uint) (*models.ProfileSettings, error) {
	var settings models.ProfileSettings
	err := r.db.Where("profile_id = ?", profileID).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepository) Upsert(settings *models.ProfileSettings) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"default_input_method", "send_on_pen_up", "updated_at"}),
	}).Create(settings).Error
}
