package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// GlobalRoom receives list-level events such as material_list_changed.
const GlobalRoom = "global"

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Event is the JSON frame pushed to subscribers.
type Event struct {
	Type       string      `json:"type"`
	MaterialID string      `json:"materialId,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// Hub fans events out to websocket clients grouped by room. A room is either
// a material id or GlobalRoom.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

func (h *Hub) Register(room string, conn *websocket.Conn) *Client {
	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.mu.Lock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	h.mu.Unlock()

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		close(client.Send)
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast queues data for every client in room. Slow clients drop frames.
func (h *Hub) Broadcast(room string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Publish sends an event to the material's room, and list-level events to
// GlobalRoom.
func (h *Hub) Publish(materialID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, MaterialID: materialID, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("event", eventType).Error("ws: marshal event")
		return
	}
	if materialID != "" {
		h.Broadcast(materialID, payload)
	}
	if eventType == EventMaterialListChanged {
		h.Broadcast(GlobalRoom, payload)
	}
}

// Stats returns the number of rooms and connected clients.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms {
		clients += len(c)
	}
	return len(h.rooms), clients
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

const (
	EventNewComment          = "new_comment"
	EventDeleteComment       = "delete_comment"
	EventLikeUpdated         = "like_updated"
	EventDownloadUpdated     = "download_updated"
	EventMaterialListChanged = "material_list_changed"
)
