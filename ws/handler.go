package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler upgrades requests and subscribes them to a hub room.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts connections whose Origin is listed in allowedOrigins. An
// empty list accepts any origin.
func NewHandler(hub *Hub, allowedOrigins ...string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Material streams engagement events for one material.
func (h *Handler) Material(c *gin.Context) {
	h.serve(c, c.Param("id"))
}

// Global streams list-level events.
func (h *Handler) Global(c *gin.Context) {
	h.serve(c, GlobalRoom)
}

func (h *Handler) serve(c *gin.Context, room string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.WithError(err).Warn("ws: upgrade failed")
		return
	}
	client := h.hub.Register(room, conn)
	defer h.hub.Unregister(room, client)

	h.hub.log.WithField("room", room).Debug("ws: connected")

	if hello, err := json.Marshal(Event{Type: "connected", MaterialID: room}); err == nil {
		client.Send <- hello
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.hub.log.WithField("room", room).Debug("ws: disconnected")
}
