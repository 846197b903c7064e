package dispatch

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"solar-analytics/internal/logging"
)

// maxFeedClients caps simultaneous dashboard connections.
const maxFeedClients = 50

// feedEvent is one message on the live alert feed.
type feedEvent struct {
	Kind    string          `json:"kind"` // "created" or "resolved"
	AlertID string          `json:"alert_id"`
	Alert   json.RawMessage `json:"alert,omitempty"`
}

// Hub manages WebSocket connections for the dashboard alert feed.
type Hub struct {
	connections map[*websocket.Conn]bool
	mutex       sync.Mutex
	logger      *logging.Logger
}

// NewHub constructs an empty Hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// Add registers a dashboard connection.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if len(h.connections) >= maxFeedClients {
		h.logger.Warnf("Max feed connections reached, rejecting client")
		conn.Close()
		return
	}
	h.connections[conn] = true
	h.logger.Infof("Added feed connection (total: %d)", len(h.connections))
}

// Remove unregisters a dashboard connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, exists := h.connections[conn]; exists {
		delete(h.connections, conn)
		h.logger.Infof("Removed feed connection (remaining: %d)", len(h.connections))
	}
}

// Broadcast sends an event to every connected dashboard client, dropping
// connections that fail.
func (h *Hub) Broadcast(event feedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("Failed to marshal feed event: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Errorf("Failed to send feed event: %v", err)
			delete(h.connections, conn)
		}
	}
}
