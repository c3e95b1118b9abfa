package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/qrac-app/draw-chat/internal/cache"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/service"
	"github.com/qrac-app/draw-chat/internal/validation"
)

type ChatHandler struct {
	chatService *service.ChatService
	chatCache   *cache.ChatCache
}

func NewChatHandler(chatService *service.ChatService, chatCache *cache.ChatCache) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		chatCache:   chatCache,
	}
}

func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateChatInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Name != nil {
		name := validation.TrimAndLimit(*input.Name, 100)
		if name == "" {
			input.Name = nil
		} else {
			input.Name = &name
		}
	}

	chat, err := h.chatService.CreateChat(profileID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileNotFound):
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		case errors.Is(err, service.ErrPrivateChatExists):
			return httpx.Error(c, fiber.StatusConflict, "private_chat_exists", err.Error())
		}
		return httpx.BadRequest(c, "create_chat_failed", err.Error())
	}

	// Every member's chat list changed.
	if memberIDs, err := h.chatService.ChatMemberIDs(chat.ID); err == nil {
		h.chatCache.InvalidateChatLists(memberIDs)
	}

	return c.Status(fiber.StatusCreated).JSON(chat)
}

// ListChats returns the caller's chats, newest activity first. Serves from
// cache when the list is fresh.
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if cached, ok := h.chatCache.GetChatList(profileID); ok {
		return c.JSON(fiber.Map{
			"chats": cached,
		})
	}

	chats, err := h.chatService.ListUserChats(profileID)
	if err != nil {
		return httpx.Internal(c, "fetch_chats_failed")
	}

	_ = h.chatCache.SetChatList(profileID, chats)

	return c.JSON(fiber.Map{
		"chats": chats,
	})
}

func (h *ChatHandler) GetChat(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	chat, err := h.chatService.GetChatByID(profileID, uint(chatID))
	if err != nil {
		return httpx.Internal(c, "fetch_chat_failed")
	}
	if chat == nil {
		// Non-members and missing chats look the same.
		return httpx.NotFound(c, "chat_not_found", "Chat not found")
	}

	return c.JSON(chat)
}

// GetOrCreatePrivateChat resolves the single private chat between the
// caller and another user, creating it on first contact.
func (h *ChatHandler) GetOrCreatePrivateChat(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	// Stored usernames are normalized at registration; match them the
	// same way so "Alice" finds the user saved as "alice".
	input.Username = validation.NormalizeUsername(input.Username)
	if input.Username == "" {
		return httpx.BadRequest(c, "missing_username", "Username is required")
	}

	chatID, err := h.chatService.GetOrCreatePrivateChat(profileID, input.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return httpx.NotFound(c, "user_not_found", "User not found")
		case errors.Is(err, service.ErrSelfChat):
			return httpx.BadRequest(c, "self_chat", "Cannot open a private chat with yourself")
		case errors.Is(err, service.ErrProfileNotFound):
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		}
		return httpx.Internal(c, "open_private_chat_failed")
	}

	if memberIDs, err := h.chatService.ChatMemberIDs(chatID); err == nil {
		h.chatCache.InvalidateChatLists(memberIDs)
	}

	return c.JSON(fiber.Map{
		"chat_id": chatID,
	})
}
