package service

import (
	"time"

	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
)

// MigrationService converts the flat legacy message list into the
// chat/membership/message model. One-shot and idempotent: the presence of
// any group chat marks the migration as already done.
type MigrationService struct {
	legacyRepo  repository.LegacyMessageRepositoryInterface
	profileRepo repository.ProfileRepositoryInterface
	chatRepo    repository.ChatRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
}

func NewMigrationService(
	legacyRepo repository.LegacyMessageRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	chatRepo repository.ChatRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
) *MigrationService {
	return &MigrationService{
		legacyRepo:  legacyRepo,
		profileRepo: profileRepo,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
	}
}

type MigrationResult struct {
	Message       string `json:"message"`
	MigratedCount int    `json:"migrated_count"`
	TotalCount    int    `json:"total_count"`
	ChatID        uint   `json:"chat_id,omitempty"`
}

func (s *MigrationService) MigrateLegacyMessages(callerID uint) (*MigrationResult, error) {
	if _, err := s.profileRepo.FindByID(callerID); err != nil {
		return nil, ErrProfileNotFound
	}

	done, err := s.chatRepo.AnyGroupChatExists()
	if err != nil {
		return nil, err
	}
	if done {
		return &MigrationResult{Message: "Migration already completed"}, nil
	}

	legacy, err := s.legacyRepo.ListAllAsc()
	if err != nil {
		return nil, err
	}
	if len(legacy) == 0 {
		return &MigrationResult{Message: "No messages to migrate"}, nil
	}

	profiles, err := s.profileRepo.ListAll()
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return &MigrationResult{Message: "No profiles found"}, nil
	}

	// Legacy authors are display-name strings; map them to profiles.
	// Rows with no matching profile are skipped but still counted in the
	// total.
	authorToProfile := make(map[string]uint, len(profiles))
	for _, profile := range profiles {
		authorToProfile[profile.DisplayName] = profile.ID
	}

	// Map the rows before creating the chat: the summary must describe
	// the newest message that actually imports, not whatever the legacy
	// list happened to end with. Legacy send times survive, except that
	// exact duplicates are nudged forward to keep per-chat timestamps
	// strictly increasing for the page cursor.
	migrated := make([]models.ChatMessage, 0, len(legacy))
	for _, old := range legacy {
		senderID, ok := authorToProfile[old.Author]
		if !ok {
			continue
		}
		ts := old.Timestamp
		if n := len(migrated); n > 0 && ts <= migrated[n-1].Timestamp {
			ts = migrated[n-1].Timestamp + 1
		}
		migrated = append(migrated, models.ChatMessage{
			SenderID:  senderID,
			Content:   old.Content,
			Kind:      old.Kind,
			Timestamp: ts,
		})
	}

	name := "Global Chat"
	now := time.Now().UnixMilli()
	chat := &models.Chat{
		Name:          &name,
		Type:          models.GroupChat,
		CreatedByID:   profiles[0].ID,
		CreatedAtMs:   now,
		LastMessageAt: now,
	}
	if n := len(migrated); n > 0 {
		newest := migrated[n-1]
		preview := models.MessagePreview(newest.Kind, newest.Content)
		chat.LastMessageAt = newest.Timestamp
		chat.LastMessagePreview = &preview
	}

	memberIDs := make([]uint, len(profiles))
	for i, profile := range profiles {
		memberIDs[i] = profile.ID
	}
	if err := s.chatRepo.CreateWithMembers(chat, memberIDs); err != nil {
		return nil, err
	}

	for i := range migrated {
		migrated[i].ChatID = chat.ID
	}
	if err := s.messageRepo.InsertBatch(migrated); err != nil {
		return nil, err
	}

	return &MigrationResult{
		Message:       "Migration completed successfully",
		MigratedCount: len(migrated),
		TotalCount:    len(legacy),
		ChatID:        chat.ID,
	}, nil
}
