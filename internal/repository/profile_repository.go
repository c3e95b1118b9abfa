package repository

import (
	"github.com/qrac-app/draw-chat/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

func (r *ProfileRepository) FindByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.First(&profile, id).Error
	return &profile, err
}

func (r *ProfileRepository) FindByEmail(email string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("email = ?", email).First(&profile).Error
	return &profile, err
}

func (r *ProfileRepository) FindByUsername(username string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("username = ?", username).First(&profile).Error
	return &profile, err
}

func (r *ProfileRepository) Update(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

func (r *ProfileRepository) SearchProfiles(query string, limit int) ([]models.Profile, error) {
	var profiles []models.Profile

	// Search by username or display name (case insensitive)
	err := r.db.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", "%"+query+"%", "%"+query+"%").
		Limit(limit).
		Find(&profiles).Error

	return profiles, err
}

func (r *ProfileRepository) ListAll() ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.Order("id ASC").Find(&profiles).Error
	return profiles, err
}
