package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/qrac-app/draw-chat/internal/cache"
	"github.com/qrac-app/draw-chat/internal/handlers/ws"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/service"
	"github.com/qrac-app/draw-chat/internal/validation"
)

type MessageHandler struct {
	messageService *service.MessageService
	chatService    *service.ChatService
	chatCache      *cache.ChatCache
	hub            *ws.Hub
}

func NewMessageHandler(messageService *service.MessageService, chatService *service.ChatService, chatCache *cache.ChatCache, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		chatService:    chatService,
		chatCache:      chatCache,
		hub:            hub,
	}
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	input.ChatID = uint(chatID)

	input.Content = validation.TrimAndLimit(input.Content, validation.MaxMessageLength())
	if input.Content == "" && input.AttachmentID == nil {
		return httpx.BadRequest(c, "missing_content", "Content is required")
	}

	message, err := h.messageService.SendMessage(profileID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotChatMember):
			return httpx.Forbidden(c, "not_chat_member", "Not a member of this chat")
		case errors.Is(err, service.ErrProfileNotFound):
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		case errors.Is(err, service.ErrAttachmentRequired):
			return httpx.BadRequest(c, "missing_attachment", "attachment_id is required for attachment messages")
		}
		return httpx.Internal(c, "send_message_failed")
	}

	// Previews, ordering and unread counts changed for every member.
	if memberIDs, err := h.chatService.ChatMemberIDs(uint(chatID)); err == nil {
		h.chatCache.InvalidateChatLists(memberIDs)
		h.chatCache.InvalidateChatUnreadCounts(uint(chatID), memberIDs)
		h.hub.NotifyProfiles(memberIDs, ws.Event{
			Type:    ws.EventMessageNew,
			ChatID:  uint(chatID),
			Payload: message.ToResponse(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

// GetMessages serves one page of chat history, oldest-first within the
// page. `cursor` restricts the scan to messages strictly older than the
// given millisecond timestamp; its absence means "latest page".
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			return httpx.BadRequest(c, "invalid_limit", "Invalid limit")
		}
		limit = l
	}

	// Presence of the cursor matters, not its value: an explicit cursor
	// of 0 asks for messages older than the epoch and yields an empty
	// page.
	var cursor *int64
	if cursorStr := c.Query("cursor"); cursorStr != "" {
		v, err := strconv.ParseInt(cursorStr, 10, 64)
		if err != nil {
			return httpx.BadRequest(c, "invalid_cursor", "Invalid cursor")
		}
		cursor = &v
	}

	page, err := h.messageService.PageMessages(c.Context(), profileID, uint(chatID), limit, cursor)
	if err != nil {
		return httpx.Internal(c, "fetch_messages_failed")
	}

	return c.JSON(page)
}

// GetAllMessages returns the full history of a chat, oldest-first.
func (h *MessageHandler) GetAllMessages(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	messages, err := h.messageService.ListMessages(c.Context(), profileID, uint(chatID))
	if err != nil {
		return httpx.Internal(c, "fetch_messages_failed")
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// MarkRead moves the caller's read marker to now. Repeat calls are
// harmless.
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	if err := h.messageService.MarkRead(profileID, uint(chatID)); err != nil {
		switch {
		case errors.Is(err, service.ErrNotChatMember):
			return httpx.Forbidden(c, "not_chat_member", "Not a member of this chat")
		case errors.Is(err, service.ErrProfileNotFound):
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		}
		return httpx.Internal(c, "mark_read_failed")
	}

	_ = h.chatCache.InvalidateChatList(profileID)
	_ = h.chatCache.InvalidateUnreadCount(profileID, uint(chatID))
	h.hub.NotifyProfiles([]uint{profileID}, ws.Event{
		Type:   ws.EventChatRead,
		ChatID: uint(chatID),
	})

	return c.JSON(fiber.Map{
		"success": true,
	})
}

func (h *MessageHandler) GetUnreadCount(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID, err := c.ParamsInt("id")
	if err != nil || chatID <= 0 {
		return httpx.BadRequest(c, "invalid_chat_id", "Invalid chat ID")
	}

	if count, ok := h.chatCache.GetUnreadCount(profileID, uint(chatID)); ok {
		return c.JSON(fiber.Map{
			"unread_count": count,
		})
	}

	count, err := h.messageService.UnreadCount(profileID, uint(chatID))
	if err != nil {
		return httpx.Internal(c, "fetch_unread_failed")
	}

	_ = h.chatCache.SetUnreadCount(profileID, uint(chatID), count)

	return c.JSON(fiber.Map{
		"unread_count": count,
	})
}

// FixChatPreviews back-fills missing chat previews from the newest message
// of each chat. Safe to run repeatedly.
func (h *MessageHandler) FixChatPreviews(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	fixed, err := h.messageService.FixChatPreviews(profileID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		}
		return httpx.Internal(c, "fix_previews_failed")
	}

	return c.JSON(fiber.Map{
		"fixed": fixed,
	})
}
