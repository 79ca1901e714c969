package realtime

import (
	"context"
	"sync"

	"recipe_community/pkg/logger"

	"go.uber.org/zap"
)

// ConversationRoom 会话对应的房间名
func ConversationRoom(conversationID string) string {
	return "conversation:" + conversationID
}

// Hub 管理本实例上的 websocket 连接，按房间分组
type Hub struct {
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run 处理连接的加入与退出，ctx 取消后关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			members := h.rooms[c.room]
			if members == nil {
				members = make(map[*Client]struct{})
				h.rooms[c.room] = members
			}
			members[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.remove(c)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for room, members := range h.rooms {
				for c := range members {
					close(c.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := members[c]; !ok {
		return
	}
	delete(members, c)
	close(c.send)
	if len(members) == 0 {
		delete(h.rooms, c.room)
	}
}

// Broadcast 投递给本实例该房间下的所有连接，缓冲区满的连接直接丢弃本条
func (h *Hub) Broadcast(room string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
			delivered++
		default:
			logger.Log.Warn("realtime client buffer full, message dropped",
				zap.String("room", room),
				zap.String("user", c.userID),
			)
		}
	}
	return delivered
}

// RoomSize 当前房间连接数
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
