package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

// dial 建立连接并等待 Hub 完成注册
func dial(t *testing.T, hub *Hub, room, user string) *websocket.Conn {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, room, user)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitRoom(t *testing.T, hub *Hub, room string, n int) {
	assert.Eventually(t, func() bool { return hub.RoomSize(room) == n }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastOnlyToRoom(t *testing.T) {
	hub := startHub(t)
	a := dial(t, hub, ConversationRoom("c1"), "u1")
	b := dial(t, hub, ConversationRoom("c2"), "u2")
	waitRoom(t, hub, ConversationRoom("c1"), 1)
	waitRoom(t, hub, ConversationRoom("c2"), 1)

	n := hub.Broadcast(ConversationRoom("c1"), []byte(`{"content":"ciao"}`))
	assert.Equal(t, 1, n)

	_ = a.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := a.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"ciao"}`, string(msg))

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err)
}

func TestHub_ClientLeaves(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "room", "u1")
	waitRoom(t, hub, "room", 1)

	require.NoError(t, conn.Close())
	waitRoom(t, hub, "room", 0)
	assert.Equal(t, 0, hub.Broadcast("room", []byte("x")))
}

func TestRedisRelay_FanOutAcrossHubs(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub1, hub2 := startHub(t), startHub(t)
	relay1 := NewRedisRelay(redis.NewClient(&redis.Options{Addr: mr.Addr()}), hub1, "rt:")
	relay2 := NewRedisRelay(redis.NewClient(&redis.Options{Addr: mr.Addr()}), hub2, "rt:")
	require.NoError(t, relay1.Start(ctx))
	require.NoError(t, relay2.Start(ctx))

	room := ConversationRoom("c9")
	conn := dial(t, hub2, room, "u2")
	waitRoom(t, hub2, room, 1)

	require.NoError(t, relay1.Publish(ctx, room, map[string]string{"content": "hello"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"hello"}`, string(msg))
}

func TestLocalRelay(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "r", "u1")
	waitRoom(t, hub, "r", 1)

	require.NoError(t, NewLocalRelay(hub).Publish(context.Background(), "r", []int{1, 2}))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", string(msg))
}
