package repository

import (
	"github.com/qrac-app/draw-chat/internal/models"
	"gorm.io/gorm"
)

type LegacyMessageRepository struct {
	db *gorm.DB
}

func NewLegacyMessageRepository(db *gorm.DB) *LegacyMessageRepository {
	return &LegacyMessageRepository{db: db}
}

func (r *LegacyMessageRepository) ListAllAsc() ([]models.LegacyMessage, error) {
	var messages []models.LegacyMessage
	err := r.db.Order("timestamp ASC, id ASC").Find(&messages).Error
	return messages, err
}
