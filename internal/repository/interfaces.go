package repository

import (
	"github.com/qrac-app/draw-chat/internal/models"
)

// ProfileRepositoryInterface defines the contract for profile repository operations
type ProfileRepositoryInterface interface {
	Create(profile *models.Profile) error
	FindByID(id uint) (*models.Profile, error)
	FindByEmail(email string) (*models.Profile, error)
	FindByUsername(username string) (*models.Profile, error)
	Update(profile *models.Profile) error
	SearchProfiles(query string, limit int) ([]models.Profile, error)
	ListAll() ([]models.Profile, error)
}

// ChatRepositoryInterface defines the contract for chat and membership operations
type ChatRepositoryInterface interface {
	CreateWithMembers(chat *models.Chat, memberIDs []uint) error
	FindByID(id uint) (*models.Chat, error)
	FindMembership(chatID, profileID uint) (*models.ChatMember, error)
	ListMemberships(profileID uint) ([]models.ChatMember, error)
	ListMembers(chatID uint) ([]models.ChatMember, error)
	ListMemberIDs(chatID uint) ([]uint, error)
	FindPrivateChatID(profileA, profileB uint) (uint, error)
	ListChatsForProfile(profileID uint) ([]models.Chat, error)
	UpdateLastRead(chatID, profileID uint, ts int64) error
	UpdatePreview(chatID uint, preview string) error
	UnreadCounts(profileID uint) ([]ChatUnreadRow, error)
	CountUnread(chatID, profileID uint) (int64, error)
	AnyGroupChatExists() (bool, error)
}

// MessageRepositoryInterface defines the contract for message repository operations
type MessageRepositoryInterface interface {
	CreateWithChatUpdate(message *models.ChatMessage, preview string) error
	FindByID(id uint) (*models.ChatMessage, error)
	ListByChatAsc(chatID uint) ([]models.ChatMessage, error)
	PageByChatDesc(chatID uint, cursor *int64, limit int) ([]models.ChatMessage, error)
	FindLatestByChat(chatID uint) (*models.ChatMessage, error)
	InsertBatch(messages []models.ChatMessage) error
}

// AttachmentRepositoryInterface defines the contract for attachment metadata operations
type AttachmentRepositoryInterface interface {
	Create(attachment *models.Attachment) error
	FindByID(id uint) (*models.Attachment, error)
	Delete(id uint) error
	ListByUploader(profileID uint) ([]models.Attachment, error)
}

// LegacyMessageRepositoryInterface defines the contract for the flat pre-chat message list
type LegacyMessageRepositoryInterface interface {
	ListAllAsc() ([]models.LegacyMessage, error)
}

// SettingsRepositoryInterface defines the contract for profile settings operations
type SettingsRepositoryInterface interface {
	Get(profileID uint) (*models.ProfileSettings, error)
	Upsert(settings *models.ProfileSettings) error
}
