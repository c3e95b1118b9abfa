package models

import (
	"time"
)

type MessageKind string

const (
	TextMessage       MessageKind = "text"
	DrawingMessage    MessageKind = "drawing"
	AttachmentMessage MessageKind = "attachment"
)

const previewMaxLen = 100

// ChatMessage is an immutable chat event. The timestamp is server-assigned
// at acceptance time; the composite (chat_id, timestamp) index backs the
// descending cursor scans.
type ChatMessage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`

	ChatID       uint        `gorm:"not null;index:idx_chat_messages_chat_ts,priority:1" json:"chat_id"`
	SenderID     uint        `gorm:"not null;index" json:"sender_id"`
	Content      string      `gorm:"type:text;not null" json:"content"`
	Kind         MessageKind `gorm:"type:varchar(20);not null;default:'text'" json:"type"`
	Timestamp    int64       `gorm:"not null;index:idx_chat_messages_chat_ts,priority:2" json:"timestamp"`
	AttachmentID *uint       `gorm:"index" json:"attachment_id,omitempty"`

	Sender     Profile     `gorm:"foreignKey:SenderID" json:"-"`
	Attachment *Attachment `gorm:"foreignKey:AttachmentID" json:"-"`
}

// Preview is the denormalized summary written onto the parent chat.
func (m *ChatMessage) Preview() string {
	return MessagePreview(m.Kind, m.Content)
}

func MessagePreview(kind MessageKind, content string) string {
	switch kind {
	case DrawingMessage:
		return "Drawing"
	case AttachmentMessage:
		return "Attachment"
	default:
		runes := []rune(content)
		if len(runes) > previewMaxLen {
			return string(runes[:previewMaxLen])
		}
		return content
	}
}

type MessageResponse struct {
	ID            uint                `json:"id"`
	ChatID        uint                `json:"chat_id"`
	SenderID      uint                `json:"sender_id"`
	Sender        ProfileResponse     `json:"sender"`
	Content       string              `json:"content"`
	Kind          MessageKind         `json:"type"`
	Timestamp     int64               `json:"timestamp"`
	AttachmentID  *uint               `json:"attachment_id,omitempty"`
	Attachment    *AttachmentResponse `json:"attachment,omitempty"`
	AttachmentURL string              `json:"attachment_url,omitempty"`
}

// ToResponse converts the message and its preloaded sender. The attachment
// retrieval URL is filled in by the service at read time; signed URLs are
// never stored.
func (m *ChatMessage) ToResponse() MessageResponse {
	resp := MessageResponse{
		ID:           m.ID,
		ChatID:       m.ChatID,
		SenderID:     m.SenderID,
		Sender:       m.Sender.ToResponse(),
		Content:      m.Content,
		Kind:         m.Kind,
		Timestamp:    m.Timestamp,
		AttachmentID: m.AttachmentID,
	}
	if m.Attachment != nil {
		a := m.Attachment.ToResponse()
		resp.Attachment = &a
	}
	return resp
}

// LegacyMessage is a row of the flat pre-chat message list. Authors are
// display-name strings; the one-shot migration maps them to profiles.
type LegacyMessage struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Kind      MessageKind `gorm:"type:varchar(20);not null" json:"type"`
	Author    string      `gorm:"not null" json:"author"`
	Timestamp int64       `gorm:"not null;index" json:"timestamp"`
}
