package repository

import (
	"github.com/qrac-app/draw-chat/internal/models"
	"gorm.io/gorm"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(attachment *models.Attachment) error {
	return r.db.Create(attachment).Error
}

func (r *AttachmentRepository) FindByID(id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	err := r.db.Preload("UploadedBy").First(&attachment, id).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *AttachmentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Attachment{}, id).Error
}

func (r *AttachmentRepository) ListByUploader(profileID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.Where("uploaded_by_id = ?", profileID).
		Order("uploaded_at DESC").
		Find(&attachments).Error
	return attachments, err
}
