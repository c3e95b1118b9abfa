package models

import (
	"time"
)

type InputMethod string

const (
	KeyboardInput InputMethod = "keyboard"
	CanvasInput   InputMethod = "canvas"
)

// ProfileSettings stores the drawing-input preferences for a profile.
// Absence means defaults: keyboard input, send on pen up.
type ProfileSettings struct {
	ProfileID          uint        `gorm:"primaryKey" json:"profile_id"`
	DefaultInputMethod InputMethod `gorm:"type:varchar(20);not null;default:'keyboard'" json:"default_input_method"`
	SendOnPenUp        bool        `gorm:"not null;default:true" json:"send_on_pen_up"`
	CreatedAt          time.Time   `json:"-"`
	UpdatedAt          time.Time   `json:"-"`
}

func DefaultProfileSettings(profileID uint) ProfileSettings {
	return ProfileSettings{
		ProfileID:          profileID,
		DefaultInputMethod: KeyboardInput,
		SendOnPenUp:        true,
	}
}
