package repository

import (
	"github.com/qrac-app/draw-chat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateWithChatUpdate inserts the message and patches the parent chat's
// last_message_at/last_message_preview in the same transaction, so the
// denormalized summary is never stale relative to the message stream.
// The chat row is locked for the duration and acts as the per-chat
// timestamp high-water mark: wall clocks repeat within a millisecond under
// burst sends, so an accepted timestamp that does not exceed the chat's
// last_message_at is bumped past it. Timestamps are therefore strictly
// increasing per chat and the timestamp-valued page cursor never splits a
// tie.
func (r *MessageRepository) CreateWithChatUpdate(message *models.ChatMessage, preview string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&chat, message.ChatID).Error; err != nil {
			return err
		}
		if message.Timestamp <= chat.LastMessageAt {
			message.Timestamp = chat.LastMessageAt + 1
		}
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).
			Where("id = ?", message.ChatID).
			Updates(map[string]interface{}{
				"last_message_at":      message.Timestamp,
				"last_message_preview": preview,
			}).Error
	})
}

func (r *MessageRepository) FindByID(id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.Preload("Sender").Preload("Attachment").First(&message, id).Error
	return &message, err
}

// ListByChatAsc returns every message of a chat oldest-first, with sender
// and attachment preloaded for the enriched read path.
func (r *MessageRepository) ListByChatAsc(chatID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Preload("Sender").Preload("Attachment").
		Where("chat_id = ?", chatID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// PageByChatDesc scans newest-first over the (chat_id, timestamp) index.
// A non-nil cursor restricts to strictly older messages; a cursor of 0 is
// a real cursor that matches nothing. The caller passes limit+1 to detect
// whether another page exists.
func (r *MessageRepository) PageByChatDesc(chatID uint, cursor *int64, limit int) ([]models.ChatMessage, error) {
	q := r.db.Preload("Sender").Preload("Attachment").
		Where("chat_id = ?", chatID)
	if cursor != nil {
		q = q.Where("timestamp < ?", *cursor)
	}

	var messages []models.ChatMessage
	err := q.Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) FindLatestByChat(chatID uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.Where("chat_id = ?", chatID).
		Order("timestamp DESC, id DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// InsertBatch is used by the legacy migration; rows keep their original
// timestamps.
func (r *MessageRepository) InsertBatch(messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.CreateInBatches(messages, 100).Error
}
