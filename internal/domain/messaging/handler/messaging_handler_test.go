package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe_community/internal/domain/messaging/model"
	"recipe_community/internal/domain/messaging/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/realtime"
	"recipe_community/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessagingService struct {
	mock.Mock
}

func (m *MockMessagingService) GetOrCreateConversation(ctx context.Context, actorID, otherID string) (*model.Conversation, error) {
	args := m.Called(ctx, actorID, otherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockMessagingService) ListConversations(ctx context.Context, actorID string) ([]model.Conversation, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockMessagingService) SendMessage(ctx context.Context, in service.SendMessageInput) (*model.Message, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessagingService) ListMessages(ctx context.Context, actorID, conversationID string, page, limit int) ([]model.Message, int64, error) {
	args := m.Called(ctx, actorID, conversationID, page, limit)
	return args.Get(0).([]model.Message), args.Get(1).(int64), args.Error(2)
}

func (m *MockMessagingService) Authorize(ctx context.Context, actorID, conversationID string) (*model.Conversation, error) {
	args := m.Called(ctx, actorID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func setupRouter(svc service.MessagingService, hub *realtime.Hub, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMessagingHandler(svc, hub)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
	})
	r.POST("/conversations", h.StartConversation)
	r.GET("/conversations", h.ListConversations)
	r.POST("/conversations/:id/messages", h.SendMessage)
	r.GET("/conversations/:id/messages", h.ListMessages)
	r.GET("/ws/conversations/:id", h.Subscribe)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestStartConversationHandler(t *testing.T) {
	svc := new(MockMessagingService)
	r := setupRouter(svc, nil, "alice")

	svc.On("GetOrCreateConversation", mock.Anything, "alice", "alice").
		Return(nil, apperr.Validation("cannot start a conversation with yourself"))
	w := postJSON(r, "/conversations", `{"participantId":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("GetOrCreateConversation", mock.Anything, "alice", "bob").
		Return(&model.Conversation{ID: "c1", User1ID: "alice", User2ID: "bob"}, nil)
	w = postJSON(r, "/conversations", `{"participantId":"bob"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user1Id":"alice"`)
}

func TestSendMessageHandler(t *testing.T) {
	svc := new(MockMessagingService)
	r := setupRouter(svc, nil, "eve")

	w := postJSON(r, "/conversations/c1/messages", `{"attachmentUrl":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("SendMessage", mock.Anything, service.SendMessageInput{ConversationID: "c1", SenderID: "eve", Content: "hi"}).
		Return(nil, apperr.Forbidden("you are not a participant of this conversation"))
	w = postJSON(r, "/conversations/c1/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListConversationsHandler(t *testing.T) {
	svc := new(MockMessagingService)
	svc.On("ListConversations", mock.Anything, "alice").Return([]model.Conversation(nil), nil)

	w := httptest.NewRecorder()
	setupRouter(svc, nil, "alice").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestSubscribeHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := realtime.NewHub()
	go hub.Run(ctx)

	svc := new(MockMessagingService)
	svc.On("Authorize", mock.Anything, "bob", "c1").Return(&model.Conversation{ID: "c1", User1ID: "alice", User2ID: "bob"}, nil)
	svc.On("Authorize", mock.Anything, "bob", "c2").Return(nil, apperr.Forbidden("you are not a participant of this conversation"))

	srv := httptest.NewServer(setupRouter(svc, hub, "bob"))
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/conversations/c2", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/conversations/c1", nil)
	require.NoError(t, err)
	defer conn.Close()

	room := realtime.ConversationRoom("c1")
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(room, []byte(`{"type":"message"}`))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"message"}`, string(data))
}
