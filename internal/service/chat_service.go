package service

import (
	"errors"
	"sort"
	"time"

	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
	"github.com/qrac-app/draw-chat/internal/validation"
	"gorm.io/gorm"
)

type ChatService struct {
	chatRepo    repository.ChatRepositoryInterface
	profileRepo repository.ProfileRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
}

func NewChatService(
	chatRepo repository.ChatRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		profileRepo: profileRepo,
		messageRepo: messageRepo,
	}
}

type CreateChatInput struct {
	Name      *string         `json:"name"`
	Type      models.ChatType `json:"type"`
	MemberIDs []uint          `json:"member_ids"`
}

func (s *ChatService) CreateChat(creatorID uint, input CreateChatInput) (*models.Chat, error) {
	if _, err := s.profileRepo.FindByID(creatorID); err != nil {
		return nil, ErrProfileNotFound
	}
	if input.Type != models.PrivateChat && input.Type != models.GroupChat {
		return nil, errors.New("invalid chat type")
	}

	// The creator is always a member; dedupe the requested list.
	memberIDs := dedupeIDs(append([]uint{creatorID}, input.MemberIDs...))
	if input.Type == models.PrivateChat && len(memberIDs) != 2 {
		return nil, errors.New("private chats require exactly two distinct members")
	}

	now := time.Now().UnixMilli()
	chat := &models.Chat{
		Name:          input.Name,
		Type:          input.Type,
		CreatedByID:   creatorID,
		CreatedAtMs:   now,
		LastMessageAt: now,
	}
	if input.Type == models.PrivateChat {
		pairKey := models.PrivatePairKey(memberIDs[0], memberIDs[1])
		chat.PairKey = &pairKey
	}

	if err := s.chatRepo.CreateWithMembers(chat, memberIDs); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPrivateChatExists
		}
		return nil, err
	}
	return chat, nil
}

// GetOrCreatePrivateChat finds the existing private chat between the
// caller and the named user, creating it (with both memberships, in one
// transaction) when absent. Calling it from either side returns the same
// chat ID.
func (s *ChatService) GetOrCreatePrivateChat(callerID uint, otherUsername string) (uint, error) {
	caller, err := s.profileRepo.FindByID(callerID)
	if err != nil {
		return 0, ErrProfileNotFound
	}
	// Usernames are stored normalized; match them the same way.
	other, err := s.profileRepo.FindByUsername(validation.NormalizeUsername(otherUsername))
	if err != nil {
		return 0, ErrUserNotFound
	}
	if other.ID == caller.ID {
		return 0, ErrSelfChat
	}

	chatID, err := s.chatRepo.FindPrivateChatID(caller.ID, other.ID)
	if err != nil {
		return 0, err
	}
	if chatID != 0 {
		return chatID, nil
	}

	now := time.Now().UnixMilli()
	pairKey := models.PrivatePairKey(caller.ID, other.ID)
	chat := &models.Chat{
		Type:          models.PrivateChat,
		CreatedByID:   caller.ID,
		CreatedAtMs:   now,
		LastMessageAt: now,
		PairKey:       &pairKey,
	}
	if err := s.chatRepo.CreateWithMembers(chat, []uint{caller.ID, other.ID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a concurrent first-contact race; the winner's chat
			// carries the same pair key.
			return s.chatRepo.FindPrivateChatID(caller.ID, other.ID)
		}
		return 0, err
	}
	return chat.ID, nil
}

// ListUserChats returns every chat the viewer belongs to, enriched with
// member profiles, the viewer's unread count and a preview (falling back
// to the newest message when the stored preview is absent), newest
// activity first. Unknown viewers get an empty slice.
func (s *ChatService) ListUserChats(viewerID uint) ([]models.ChatResponse, error) {
	if _, err := s.profileRepo.FindByID(viewerID); err != nil {
		return []models.ChatResponse{}, nil
	}

	memberships, err := s.chatRepo.ListMemberships(viewerID)
	if err != nil {
		return nil, err
	}

	unreadByChat := map[uint]int64{}
	if rows, err := s.chatRepo.UnreadCounts(viewerID); err == nil {
		for _, row := range rows {
			unreadByChat[row.ChatID] = row.UnreadCount
		}
	}

	chats := make([]models.ChatResponse, 0, len(memberships))
	for _, membership := range memberships {
		chat, err := s.chatRepo.FindByID(membership.ChatID)
		if err != nil {
			continue
		}
		resp, err := s.buildChatResponse(chat, &membership)
		if err != nil {
			return nil, err
		}
		resp.UnreadCount = unreadByChat[chat.ID]
		chats = append(chats, *resp)
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessageAt > chats[j].LastMessageAt
	})
	return chats, nil
}

// GetChatByID is the gated single-chat read. Non-members get nil, nil.
func (s *ChatService) GetChatByID(viewerID, chatID uint) (*models.ChatResponse, error) {
	if _, err := s.profileRepo.FindByID(viewerID); err != nil {
		return nil, nil
	}
	membership, err := s.chatRepo.FindMembership(chatID, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	resp, err := s.buildChatResponse(chat, membership)
	if err != nil {
		return nil, err
	}
	if count, err := s.chatRepo.CountUnread(chatID, viewerID); err == nil {
		resp.UnreadCount = count
	}
	return resp, nil
}

func (s *ChatService) buildChatResponse(chat *models.Chat, membership *models.ChatMember) (*models.ChatResponse, error) {
	members, err := s.chatRepo.ListMembers(chat.ID)
	if err != nil {
		return nil, err
	}
	memberResponses := make([]models.ChatMemberResponse, 0, len(members))
	for _, member := range members {
		memberResponses = append(memberResponses, models.ChatMemberResponse{
			ProfileResponse: member.Profile.ToResponse(),
			JoinedAt:        member.JoinedAt,
			LastReadAt:      member.LastReadAt,
		})
	}

	preview := chat.LastMessagePreview
	if preview == nil {
		// Chats that predate the preview field: derive it from the
		// newest message without persisting.
		if latest, err := s.messageRepo.FindLatestByChat(chat.ID); err == nil {
			p := latest.Preview()
			preview = &p
		}
	}

	return &models.ChatResponse{
		ID:                 chat.ID,
		Name:               chat.Name,
		Type:               chat.Type,
		CreatedByID:        chat.CreatedByID,
		CreatedAtMs:        chat.CreatedAtMs,
		LastMessageAt:      chat.LastMessageAt,
		LastMessagePreview: preview,
		Members:            memberResponses,
		LastReadAt:         membership.LastReadAt,
	}, nil
}

// ChatMemberIDs lists member profile IDs for fan-out (cache invalidation
// and realtime pushes).
func (s *ChatService) ChatMemberIDs(chatID uint) ([]uint, error) {
	return s.chatRepo.ListMemberIDs(chatID)
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
