package models

import (
	"time"
)

// Attachment is metadata about an uploaded object. The storage key never
// leaves the server; clients get short-lived presigned URLs instead.
type Attachment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`

	StorageKey   string `gorm:"not null" json:"-"`
	OriginalName string `gorm:"size:255;not null" json:"original_name"`
	MimeType     string `gorm:"size:100;not null" json:"mime_type"`
	Size         int64  `gorm:"not null" json:"size"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
	UploadedByID uint   `gorm:"not null;index" json:"uploaded_by"`
	UploadedAt   int64  `gorm:"not null" json:"uploaded_at"`

	UploadedBy Profile `gorm:"foreignKey:UploadedByID" json:"-"`
}

type AttachmentResponse struct {
	ID           uint   `json:"id"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
	UploadedByID uint   `json:"uploaded_by"`
	UploadedAt   int64  `json:"uploaded_at"`
}

func (a *Attachment) ToResponse() AttachmentResponse {
	return AttachmentResponse{
		ID:           a.ID,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		Size:         a.Size,
		Width:        a.Width,
		Height:       a.Height,
		UploadedByID: a.UploadedByID,
		UploadedAt:   a.UploadedAt,
	}
}
