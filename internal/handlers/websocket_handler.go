package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/qrac-app/draw-chat/internal/cache"
	"github.com/qrac-app/draw-chat/internal/handlers/ws"
)

// WebSocketHandler owns the hub. Clients connect to receive change
// notifications; all reads and writes still go over HTTP, so the inbound
// direction only carries control frames.
type WebSocketHandler struct {
	hub      *ws.Hub
	presence *cache.PresenceCache
}

func NewWebSocketHandler(presence *cache.PresenceCache) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      ws.NewHub(),
		presence: presence,
	}
}

// GetHub returns the hub instance (used by HTTP handlers to push events)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	profileID := c.Locals("profileID").(uint)

	client := h.hub.Register(profileID, c)

	if err := h.presence.SetOnline(profileID); err != nil {
		log.Printf("Failed to set profile %d online: %v", profileID, err)
	}

	defer func() {
		h.hub.Unregister(client)
		if !h.hub.IsOnline(profileID) {
			if err := h.presence.SetOffline(profileID); err != nil {
				log.Printf("Failed to set profile %d offline: %v", profileID, err)
			}
		}
	}()

	// Drain inbound frames. Clients send nothing meaningful; the loop
	// exists to process pongs and notice disconnects.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
		if err := h.presence.RefreshOnline(profileID); err != nil {
			log.Printf("Failed to refresh presence for profile %d: %v", profileID, err)
		}
	}
}
