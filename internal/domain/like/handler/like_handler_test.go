package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipe_community/internal/domain/like/model"
	"recipe_community/internal/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLikeService struct {
	mock.Mock
}

func (m *MockLikeService) ToggleLike(ctx context.Context, userID, likeableID, likeableType string) (bool, error) {
	args := m.Called(ctx, userID, likeableID, likeableType)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeService) Summary(ctx context.Context, viewerID, likeableID, likeableType string) (*model.Summary, error) {
	args := m.Called(ctx, viewerID, likeableID, likeableType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Summary), args.Error(1)
}

func setupRouter(svc *MockLikeService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLikeHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextUserID, userID)
		}
	})
	r.POST("/likes/toggle", h.ToggleLike)
	r.GET("/likes", h.GetSummary)
	return r
}

func TestToggleLikeHandler(t *testing.T) {
	t.Run("Unauthenticated", func(t *testing.T) {
		svc := new(MockLikeService)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/likes/toggle", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(svc, "").ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("BadType", func(t *testing.T) {
		svc := new(MockLikeService)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/likes/toggle", strings.NewReader(`{"likeableId":"x","likeableType":"recipe"}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(svc, "u1").ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Liked", func(t *testing.T) {
		svc := new(MockLikeService)
		svc.On("ToggleLike", mock.Anything, "u1", "p1", "post").Return(true, nil)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/likes/toggle", strings.NewReader(`{"likeableId":"p1","likeableType":"post"}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(svc, "u1").ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"liked":true`)
	})
}

func TestGetSummaryHandler(t *testing.T) {
	svc := new(MockLikeService)
	svc.On("Summary", mock.Anything, "", "p1", "post").Return(&model.Summary{LikeableID: "p1", LikeableType: "post", Count: 2}, nil)

	w := httptest.NewRecorder()
	setupRouter(svc, "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/likes?likeableId=p1&likeableType=post", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
}
