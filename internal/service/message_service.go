package service

import (
	"context"
	"errors"
	"time"

	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	retrievalURLTTL  = 15 * time.Minute
)

// ObjectURLSigner issues short-lived retrieval URLs for stored attachment
// objects. Nil when object storage is not configured; enrichment then
// leaves attachment URLs empty.
type ObjectURLSigner interface {
	PresignedRetrievalURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type MessageService struct {
	messageRepo repository.MessageRepositoryInterface
	chatRepo    repository.ChatRepositoryInterface
	profileRepo repository.ProfileRepositoryInterface
	signer      ObjectURLSigner
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	chatRepo repository.ChatRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	signer ObjectURLSigner,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		profileRepo: profileRepo,
		signer:      signer,
	}
}

// requireMembership is the write-path gate: missing profile or membership
// fails loud with a domain error.
func (s *MessageService) requireMembership(chatID, profileID uint) error {
	if _, err := s.profileRepo.FindByID(profileID); err != nil {
		return ErrProfileNotFound
	}
	if _, err := s.chatRepo.FindMembership(chatID, profileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotChatMember
		}
		return err
	}
	return nil
}

// isMember is the read-path gate: any failure reads as "not a member" so
// callers can fall back to an empty result.
func (s *MessageService) isMember(chatID, profileID uint) bool {
	if _, err := s.profileRepo.FindByID(profileID); err != nil {
		return false
	}
	_, err := s.chatRepo.FindMembership(chatID, profileID)
	return err == nil
}

type SendMessageInput struct {
	ChatID       uint               `json:"chat_id"`
	Content      string             `json:"content"`
	Kind         models.MessageKind `json:"type"`
	AttachmentID *uint              `json:"attachment_id"`
}

// SendMessage appends an immutable message with a server-assigned
// millisecond timestamp. The chat's last_message_at and preview are
// patched in the same transaction as the insert.
func (s *MessageService) SendMessage(senderID uint, input SendMessageInput) (*models.ChatMessage, error) {
	if err := s.requireMembership(input.ChatID, senderID); err != nil {
		return nil, err
	}

	kind := input.Kind
	if kind == "" {
		kind = models.TextMessage
	}
	if kind == models.AttachmentMessage && input.AttachmentID == nil {
		return nil, ErrAttachmentRequired
	}

	message := &models.ChatMessage{
		ChatID:       input.ChatID,
		SenderID:     senderID,
		Content:      input.Content,
		Kind:         kind,
		Timestamp:    time.Now().UnixMilli(),
		AttachmentID: input.AttachmentID,
	}

	if err := s.messageRepo.CreateWithChatUpdate(message, message.Preview()); err != nil {
		return nil, err
	}

	// Load sender and attachment for the response.
	return s.messageRepo.FindByID(message.ID)
}

// ListMessages returns a chat's full history oldest-first, enriched with
// sender profiles and fresh attachment URLs. Non-members get an empty
// slice.
func (s *MessageService) ListMessages(ctx context.Context, viewerID, chatID uint) ([]models.MessageResponse, error) {
	if !s.isMember(chatID, viewerID) {
		return []models.MessageResponse{}, nil
	}

	messages, err := s.messageRepo.ListByChatAsc(chatID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, messages), nil
}

type MessagePage struct {
	Messages   []models.MessageResponse `json:"messages"`
	HasMore    bool                     `json:"has_more"`
	NextCursor *int64                   `json:"next_cursor"`
}

func emptyPage() *MessagePage {
	return &MessagePage{Messages: []models.MessageResponse{}}
}

// PageMessages serves one page of a chat's history. The scan runs
// newest-first; cursor presence (not value) decides whether to restrict to
// strictly older messages, so an explicit cursor of 0 yields an empty page
// rather than the first one. The trimmed page is re-sorted ascending
// because callers display oldest-first.
func (s *MessageService) PageMessages(ctx context.Context, viewerID, chatID uint, limit int, cursor *int64) (*MessagePage, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if !s.isMember(chatID, viewerID) {
		return emptyPage(), nil
	}

	// Fetch one extra row to learn whether an older page exists.
	rows, err := s.messageRepo.PageByChatDesc(chatID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	var nextCursor *int64
	if hasMore && len(rows) > 0 {
		oldest := rows[len(rows)-1].Timestamp
		nextCursor = &oldest
	}

	// Back to chronological order for display.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	return &MessagePage{
		Messages:   s.enrich(ctx, rows),
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}

// UnreadCount counts messages newer than the viewer's watermark, excluding
// the viewer's own messages. Non-members read zero.
func (s *MessageService) UnreadCount(viewerID, chatID uint) (int64, error) {
	if !s.isMember(chatID, viewerID) {
		return 0, nil
	}
	return s.chatRepo.CountUnread(chatID, viewerID)
}

// MarkRead advances the caller's read watermark to now. Idempotent.
func (s *MessageService) MarkRead(callerID, chatID uint) error {
	if err := s.requireMembership(chatID, callerID); err != nil {
		return err
	}
	return s.chatRepo.UpdateLastRead(chatID, callerID, time.Now().UnixMilli())
}

// FixChatPreviews back-fills missing chat previews from each chat's newest
// message. One-shot repair for chats that predate the preview field, not a
// steady-state path.
func (s *MessageService) FixChatPreviews(callerID uint) (int, error) {
	if _, err := s.profileRepo.FindByID(callerID); err != nil {
		return 0, ErrProfileNotFound
	}

	memberships, err := s.chatRepo.ListMemberships(callerID)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, membership := range memberships {
		chat, err := s.chatRepo.FindByID(membership.ChatID)
		if err != nil || chat.LastMessagePreview != nil {
			continue
		}
		latest, err := s.messageRepo.FindLatestByChat(chat.ID)
		if err != nil {
			continue
		}
		if err := s.chatRepo.UpdatePreview(chat.ID, latest.Preview()); err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

func (s *MessageService) enrich(ctx context.Context, messages []models.ChatMessage) []models.MessageResponse {
	responses := make([]models.MessageResponse, len(messages))
	for i := range messages {
		resp := messages[i].ToResponse()
		if messages[i].Attachment != nil && s.signer != nil {
			if url, err := s.signer.PresignedRetrievalURL(ctx, messages[i].Attachment.StorageKey, retrievalURLTTL); err == nil {
				resp.AttachmentURL = url
			}
		}
		responses[i] = resp
	}
	return responses
}
