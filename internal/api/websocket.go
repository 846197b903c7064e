package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AlertFeed upgrades a dashboard client onto the live alert feed. The
// connection stays registered until the client disconnects.
func (h *Handler) AlertFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	hub := h.dispatcher.Hub()
	hub.Add(conn)

	go func() {
		defer func() {
			hub.Remove(conn)
			conn.Close()
		}()
		for {
			// Drain client frames; exit on disconnect.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
