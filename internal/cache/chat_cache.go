package cache

import (
	"fmt"
	"time"

	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// TTL constants for different cache types
const (
	ChatListTTL    = 2 * time.Minute
	UnreadCountTTL = 1 * time.Minute
)

// ChatCache handles chat-list and unread-count caching. All methods are
// nil-safe so callers can run without Redis configured.
type ChatCache struct {
	redis *RedisCache
}

// NewChatCache creates a new chat cache
func NewChatCache(redis *RedisCache) *ChatCache {
	return &ChatCache{redis: redis}
}

func chatListKey(profileID uint) string {
	return fmt.Sprintf("chatlist:%d", profileID)
}

func unreadKey(profileID, chatID uint) string {
	return fmt.Sprintf("unread:%d:%d", profileID, chatID)
}

// GetChatList retrieves the cached chat list for a profile
func (cc *ChatCache) GetChatList(profileID uint) ([]models.ChatResponse, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(chatListKey(profileID))
	if err != nil || data == nil {
		return nil, false
	}

	var chats []models.ChatResponse
	if err := msgpack.Unmarshal(data, &chats); err != nil {
		return nil, false
	}

	return chats, true
}

// SetChatList caches the chat list for a profile
func (cc *ChatCache) SetChatList(profileID uint, chats []models.ChatResponse) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(chats)
	if err != nil {
		return err
	}

	return cc.redis.Set(chatListKey(profileID), data, ChatListTTL)
}

// InvalidateChatList removes a profile's chat list from cache
func (cc *ChatCache) InvalidateChatList(profileID uint) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	return cc.redis.Delete(chatListKey(profileID))
}

// InvalidateChatLists removes chat lists for every given profile. Used after
// a send or read so each member sees fresh previews and counts.
func (cc *ChatCache) InvalidateChatLists(profileIDs []uint) {
	if cc == nil || cc.redis == nil {
		return
	}
	for _, id := range profileIDs {
		_ = cc.redis.Delete(chatListKey(id))
	}
}

// GetUnreadCount retrieves a cached per-chat unread count
func (cc *ChatCache) GetUnreadCount(profileID, chatID uint) (int64, bool) {
	if cc == nil || cc.redis == nil {
		return 0, false
	}
	data, err := cc.redis.Get(unreadKey(profileID, chatID))
	if err != nil || data == nil {
		return 0, false
	}

	var count int64
	if err := msgpack.Unmarshal(data, &count); err != nil {
		return 0, false
	}

	return count, true
}

// SetUnreadCount caches a per-chat unread count
func (cc *ChatCache) SetUnreadCount(profileID, chatID uint, count int64) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(count)
	if err != nil {
		return err
	}

	return cc.redis.Set(unreadKey(profileID, chatID), data, UnreadCountTTL)
}

// InvalidateUnreadCount removes a cached unread count
func (cc *ChatCache) InvalidateUnreadCount(profileID, chatID uint) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	return cc.redis.Delete(unreadKey(profileID, chatID))
}

// InvalidateChatUnreadCounts removes unread counts for a chat across members
func (cc *ChatCache) InvalidateChatUnreadCounts(chatID uint, profileIDs []uint) {
	if cc == nil || cc.redis == nil {
		return
	}
	for _, id := range profileIDs {
		_ = cc.redis.Delete(unreadKey(id, chatID))
	}
}
