package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Event is the wire envelope pushed to connected clients. Clients re-fetch
// the affected chat on receipt; the payload is a hint, not the source of
// truth.
type Event struct {
	Type    string      `json:"type"`
	ChatID  uint        `json:"chat_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

const (
	EventMessageNew = "message.new"
	EventChatRead   = "chat.read"
)

type client struct {
	conn       *websocket.Conn
	profileID  uint
	lastPong   time.Time
	pingTicker *time.Ticker
	closeChan  chan struct{}
	writeMux   sync.Mutex
}

// Hub manages all active WebSocket connections. A profile may hold several
// connections at once (multiple tabs/devices).
type Hub struct {
	clients      map[uint]map[*client]struct{}
	clientsMux   sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[uint]map[*client]struct{}),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a connection for a profile and starts health monitoring.
// The returned handle is passed back to Unregister on disconnect.
func (h *Hub) Register(profileID uint, conn *websocket.Conn) *client {
	c := &client{
		conn:       conn,
		profileID:  profileID,
		lastPong:   time.Now(),
		pingTicker: time.NewTicker(h.pingInterval),
		closeChan:  make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.clientsMux.Lock()
		c.lastPong = time.Now()
		h.clientsMux.Unlock()
		return conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.clientsMux.Lock()
	if h.clients[profileID] == nil {
		h.clients[profileID] = make(map[*client]struct{})
	}
	h.clients[profileID][c] = struct{}{}
	total := len(h.clients)
	h.clientsMux.Unlock()

	go h.pingRoutine(c)

	log.Printf("Profile %d connected to hub (profiles online: %d)", profileID, total)
	return c
}

// Unregister removes a connection
func (h *Hub) Unregister(c *client) {
	h.clientsMux.Lock()
	if conns, exists := h.clients[c.profileID]; exists {
		if _, ok := conns[c]; ok {
			c.pingTicker.Stop()
			close(c.closeChan)
			delete(conns, c)
		}
		if len(conns) == 0 {
			delete(h.clients, c.profileID)
		}
	}
	total := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("Profile %d disconnected from hub (profiles online: %d)", c.profileID, total)
}

// IsOnline checks if a profile has at least one live connection
func (h *Hub) IsOnline(profileID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients[profileID]) > 0
}

// Count returns the number of distinct online profiles
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// NotifyProfiles pushes an event to every connection of the given profiles.
// Delivery is best-effort: clients reconcile state over HTTP, so a dropped
// frame is never corrected here.
func (h *Hub) NotifyProfiles(profileIDs []uint, event Event) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event.Type, err)
		return
	}

	h.clientsMux.RLock()
	targets := make([]*client, 0, len(profileIDs))
	for _, id := range profileIDs {
		for c := range h.clients[id] {
			targets = append(targets, c)
		}
	}
	h.clientsMux.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, jsonData); err != nil {
			log.Printf("Error sending %s to profile %d: %v", event.Type, c.profileID, err)
			h.Unregister(c)
		}
	}
}

func (c *client) write(frameType int, data []byte) error {
	c.writeMux.Lock()
	defer c.writeMux.Unlock()
	return c.conn.WriteMessage(frameType, data)
}

// pingRoutine sends periodic ping frames to keep the connection alive
func (h *Hub) pingRoutine(c *client) {
	for {
		select {
		case <-c.closeChan:
			return
		case <-c.pingTicker.C:
			c.writeMux.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			c.writeMux.Unlock()
			if err != nil {
				log.Printf("Ping failed for profile %d: %v", c.profileID, err)
				h.Unregister(c)
				return
			}
		}
	}
}

// connectionHealthChecker drops connections that stopped answering pings
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		h.clientsMux.RLock()
		dead := make([]*client, 0)
		for _, conns := range h.clients {
			for c := range conns {
				if now.Sub(c.lastPong) > h.pongTimeout {
					dead = append(dead, c)
				}
			}
		}
		h.clientsMux.RUnlock()

		for _, c := range dead {
			log.Printf("Removing dead connection for profile %d (no pong received)", c.profileID)
			h.Unregister(c)
		}
	}
}
