package cache

import (
	"fmt"
	"strconv"
	"time"
)

const (
	OnlineProfilesTTL = 90 * time.Second // Match pong timeout
)

// PresenceCache tracks which profiles currently hold a live socket
type PresenceCache struct {
	redis *RedisCache
}

// NewPresenceCache creates a new presence cache
func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

// SetOnline adds a profile to the online set
func (pc *PresenceCache) SetOnline(profileID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd("online:profiles", profileID); err != nil {
		return err
	}

	// Individual key with TTL for auto-expiration
	key := fmt.Sprintf("online:%d", profileID)
	return pc.redis.Set(key, []byte("1"), OnlineProfilesTTL)
}

// SetOffline removes a profile from the online set
func (pc *PresenceCache) SetOffline(profileID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove("online:profiles", profileID); err != nil {
		return err
	}

	key := fmt.Sprintf("online:%d", profileID)
	return pc.redis.Delete(key)
}

// IsOnline checks if a profile has a live socket
func (pc *PresenceCache) IsOnline(profileID uint) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	key := fmt.Sprintf("online:%d", profileID)
	return pc.redis.Exists(key)
}

// RefreshOnline extends the TTL for an online profile
func (pc *PresenceCache) RefreshOnline(profileID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	key := fmt.Sprintf("online:%d", profileID)
	return pc.redis.Set(key, []byte("1"), OnlineProfilesTTL)
}

// OnlineProfiles returns all online profile IDs
func (pc *PresenceCache) OnlineProfiles() ([]uint, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	members, err := pc.redis.SetMembers("online:profiles")
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(members))
	for _, member := range members {
		if id, err := strconv.ParseUint(member, 10, 32); err == nil {
			ids = append(ids, uint(id))
		}
	}

	return ids, nil
}

// OnlineCount returns how many profiles are online
func (pc *PresenceCache) OnlineCount() (int64, error) {
	if pc == nil || pc.redis == nil {
		return 0, nil
	}
	return pc.redis.SetCard("online:profiles")
}
