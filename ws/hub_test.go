package ws

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, allowed ...string) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	hub := NewHub(log)
	h := NewHandler(hub, allowed...)
	r := gin.New()
	r.GET("/ws/materials/:id", h.Material)
	r.GET("/ws/materials", h.Global)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	return ev
}

func TestPublishReachesRoom(t *testing.T) {
	hub, srv := newTestServer(t)

	material := dial(t, srv, "/ws/materials/m-1")
	global := dial(t, srv, "/ws/materials")

	hello := readEvent(t, material)
	assert.Equal(t, "connected", hello.Type)
	assert.Equal(t, "m-1", hello.MaterialID)
	assert.Equal(t, "connected", readEvent(t, global).Type)

	rooms, clients := hub.Stats()
	assert.Equal(t, 2, rooms)
	assert.Equal(t, 2, clients)

	hub.Publish("m-1", EventLikeUpdated, map[string]int{"likeCount": 3})
	ev := readEvent(t, material)
	assert.Equal(t, EventLikeUpdated, ev.Type)
	assert.Equal(t, "m-1", ev.MaterialID)
	assert.Equal(t, map[string]interface{}{"likeCount": float64(3)}, ev.Data)

	hub.Publish("m-1", EventMaterialListChanged, nil)
	assert.Equal(t, EventMaterialListChanged, readEvent(t, material).Type)
	assert.Equal(t, EventMaterialListChanged, readEvent(t, global).Type)
}

func TestOtherRoomsDoNotReceive(t *testing.T) {
	hub, srv := newTestServer(t)

	other := dial(t, srv, "/ws/materials/m-2")
	readEvent(t, other)

	hub.Publish("m-1", EventNewComment, nil)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv, "/ws/materials/m-1")
	readEvent(t, conn)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		rooms, clients := hub.Stats()
		return rooms == 0 && clients == 0
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish("m-1", EventNewComment, nil)
}

func TestOriginAllowlist(t *testing.T) {
	_, srv := newTestServer(t, "http://localhost:3000")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/materials"

	header := http.Header{"Origin": []string{"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}
