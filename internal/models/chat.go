package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ChatType string

const (
	PrivateChat ChatType = "private"
	GroupChat   ChatType = "group"
)

// Chat is a conversation. All domain timestamps are Unix milliseconds so
// message cursors and read watermarks compare directly against them.
type Chat struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        *string  `gorm:"size:100" json:"name,omitempty"`
	Type        ChatType `gorm:"type:varchar(20);not null" json:"type"`
	CreatedByID uint     `gorm:"not null;index" json:"created_by"`

	// PairKey is set only on private chats: the member pair normalized to
	// "min:max". The unique index makes "at most one private chat per
	// pair" hold under concurrent first-contact creates; losers of the
	// race see a duplicate-key error and fetch the winner's chat.
	PairKey *string `gorm:"size:50;uniqueIndex" json:"-"`

	CreatedAtMs   int64 `gorm:"column:created_at_ms;not null" json:"created_at_ms"`
	LastMessageAt int64 `gorm:"not null;index" json:"last_message_at"`
	// Nil until the first message (or a preview back-fill) writes it.
	LastMessagePreview *string `gorm:"size:100" json:"last_message_preview,omitempty"`

	CreatedBy Profile      `gorm:"foreignKey:CreatedByID" json:"-"`
	Members   []ChatMember `gorm:"foreignKey:ChatID" json:"-"`
}

// PrivatePairKey normalizes an unordered member pair into the key stored
// on a private chat, so both orderings map to the same row.
func PrivatePairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ChatMember joins a profile to a chat and carries its read watermark.
// LastReadAt nil means the member has never marked the chat read, so all
// history counts as unread.
type ChatMember struct {
	ChatID     uint   `gorm:"primaryKey" json:"chat_id"`
	ProfileID  uint   `gorm:"primaryKey;index" json:"profile_id"`
	JoinedAt   int64  `gorm:"not null" json:"joined_at"`
	LastReadAt *int64 `json:"last_read_at,omitempty"`

	Profile Profile `gorm:"foreignKey:ProfileID" json:"-"`
	Chat    Chat    `gorm:"foreignKey:ChatID" json:"-"`
}

type ChatMemberResponse struct {
	ProfileResponse
	JoinedAt   int64  `json:"joined_at"`
	LastReadAt *int64 `json:"last_read_at,omitempty"`
}

// ChatResponse is a chat enriched for list/detail views: member profiles,
// the viewer's own watermark, the (possibly back-filled) preview and the
// viewer's unread count.
type ChatResponse struct {
	ID                 uint                 `json:"id"`
	Name               *string              `json:"name,omitempty"`
	Type               ChatType             `json:"type"`
	CreatedByID        uint                 `json:"created_by"`
	CreatedAtMs        int64                `json:"created_at_ms"`
	LastMessageAt      int64                `json:"last_message_at"`
	LastMessagePreview *string              `json:"last_message_preview,omitempty"`
	Members            []ChatMemberResponse `json:"members"`
	LastReadAt         *int64               `json:"last_read_at,omitempty"`
	UnreadCount        int64                `json:"unread_count"`
}
