package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the application user. Its ID is the verified subject carried
// in access tokens; chat membership and message authorship reference it.
type Profile struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	DisplayName  string `json:"display_name"`

	Avatar            string     `json:"avatar"`
	AvatarKey         string     `json:"-"`
	AvatarContentType string     `json:"-"`
	AvatarSizeBytes   int64      `json:"-"`
	AvatarUpdatedAt   *time.Time `json:"-"`
	AvatarETag        string     `json:"-"`
}

type ProfileResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
}

func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Avatar:      p.Avatar,
	}
}
