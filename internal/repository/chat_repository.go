package repository

import (
	"github.com/qrac-app/draw-chat/internal/models"
	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateWithMembers inserts the chat and all of its memberships in one
// transaction so a chat is never observable without its member rows.
func (r *ChatRepository) CreateWithMembers(chat *models.Chat, memberIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for _, profileID := range memberIDs {
			member := models.ChatMember{
				ChatID:    chat.ID,
				ProfileID: profileID,
				JoinedAt:  chat.CreatedAtMs,
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ChatRepository) FindByID(id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.First(&chat, id).Error
	return &chat, err
}

func (r *ChatRepository) FindMembership(chatID, profileID uint) (*models.ChatMember, error) {
	var member models.ChatMember
	err := r.db.Where("chat_id = ? AND profile_id = ?", chatID, profileID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *ChatRepository) ListMemberships(profileID uint) ([]models.ChatMember, error) {
	var members []models.ChatMember
	err := r.db.Where("profile_id = ?", profileID).Find(&members).Error
	return members, err
}

func (r *ChatRepository) ListMembers(chatID uint) ([]models.ChatMember, error) {
	var members []models.ChatMember
	err := r.db.Where("chat_id = ?", chatID).
		Preload("Profile").
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *ChatRepository) ListMemberIDs(chatID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ChatMember{}).
		Where("chat_id = ?", chatID).
		Pluck("profile_id", &ids).Error
	return ids, err
}

// FindPrivateChatID returns the ID of the private chat containing both
// profiles, or 0 when none exists. At most one such chat can exist per
// unordered pair.
func (r *ChatRepository) FindPrivateChatID(profileA, profileB uint) (uint, error) {
	var id uint
	err := r.db.Raw(`
		SELECT c.id
		FROM chats c
		JOIN chat_members a ON a.chat_id = c.id AND a.profile_id = ?
		JOIN chat_members b ON b.chat_id = c.id AND b.profile_id = ?
		WHERE c.type = ? AND c.deleted_at IS NULL
		LIMIT 1
	`, profileA, profileB, models.PrivateChat).Scan(&id).Error
	return id, err
}

func (r *ChatRepository) ListChatsForProfile(profileID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chat_members.profile_id = ?", profileID).
		Order("chats.last_message_at DESC").
		Find(&chats).Error
	return chats, err
}

// UpdateLastRead moves the member's read watermark. The operation is
// idempotent; marking an already-read chat simply advances the timestamp.
func (r *ChatRepository) UpdateLastRead(chatID, profileID uint, ts int64) error {
	return r.db.Model(&models.ChatMember{}).
		Where("chat_id = ? AND profile_id = ?", chatID, profileID).
		Update("last_read_at", ts).Error
}

func (r *ChatRepository) UpdatePreview(chatID uint, preview string) error {
	return r.db.Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("last_message_preview", preview).Error
}

// ChatUnreadRow carries one chat's unread count for a given viewer.
type ChatUnreadRow struct {
	ChatID      uint  `gorm:"column:chat_id"`
	UnreadCount int64 `gorm:"column:unread_count"`
}

// UnreadCounts computes unread counts for every chat the profile belongs
// to in a single scan. A message is unread when it is newer than the
// member's watermark (absent watermark counts as 0, i.e. all history) and
// was not sent by the viewer.
func (r *ChatRepository) UnreadCounts(profileID uint) ([]ChatUnreadRow, error) {
	var rows []ChatUnreadRow
	err := r.db.Raw(`
		SELECT m.chat_id AS chat_id,
		       COUNT(*) AS unread_count
		FROM chat_messages m
		JOIN chat_members cm ON cm.chat_id = m.chat_id AND cm.profile_id = ?
		WHERE m.timestamp > COALESCE(cm.last_read_at, 0)
		  AND m.sender_id <> ?
		GROUP BY m.chat_id
	`, profileID, profileID).Scan(&rows).Error
	return rows, err
}

func (r *ChatRepository) CountUnread(chatID, profileID uint) (int64, error) {
	var count int64
	err := r.db.Raw(`
		SELECT COUNT(*)
		FROM chat_messages m
		JOIN chat_members cm ON cm.chat_id = m.chat_id AND cm.profile_id = ?
		WHERE m.chat_id = ?
		  AND m.timestamp > COALESCE(cm.last_read_at, 0)
		  AND m.sender_id <> ?
	`, profileID, chatID, profileID).Scan(&count).Error
	return count, err
}

func (r *ChatRepository) AnyGroupChatExists() (bool, error) {
	var count int64
	err := r.db.Model(&models.Chat{}).
		Where("type = ?", models.GroupChat).
		Count(&count).Error
	return count > 0, err
}
