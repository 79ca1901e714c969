package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe_community/internal/pkg/config"
	"recipe_community/pkg/security"
	"recipe_community/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type staticRoles map[string]security.Role

func (s staticRoles) HasRole(ctx context.Context, userID string, role security.Role) (bool, error) {
	return s[userID] == role, nil
}

func init() {
	gin.SetMode(gin.TestMode)
	config.GlobalConfig.JWT.Secret = "middleware-test-secret-0123456789abcdef"
}

type staticAccounts struct {
	active map[string]bool
	err    error
}

func (s staticAccounts) Exists(ctx context.Context, userID string) (bool, error) {
	return s.active[userID], s.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	all := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUserID(c)})
	})
	r.GET("/x", all...)
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActiveAuthMiddlewareTokenOnly(t *testing.T) {
	r := newRouter(ActiveAuthMiddleware(nil))

	t.Run("MissingHeader", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, nil).Code)
	})

	t.Run("BadFormat", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{"Authorization": "Token abc"}).Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		token, _, err := utils.GenerateToken("u-42", "user")
		require.NoError(t, err)

		w := do(r, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"u-42"}`, w.Body.String())
	})
}

func TestActiveAuthMiddleware(t *testing.T) {
	token, _, err := utils.GenerateToken("u-42", "user")
	require.NoError(t, err)
	header := map[string]string{"Authorization": "Bearer " + token}

	t.Run("ActiveAccount", func(t *testing.T) {
		r := newRouter(ActiveAuthMiddleware(staticAccounts{active: map[string]bool{"u-42": true}}))
		w := do(r, header)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"u-42"}`, w.Body.String())
	})

	t.Run("DeletedAccountTokenRejected", func(t *testing.T) {
		r := newRouter(ActiveAuthMiddleware(staticAccounts{active: map[string]bool{}}))
		w := do(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "account is no longer active")
	})

	t.Run("LookupFailure", func(t *testing.T) {
		r := newRouter(ActiveAuthMiddleware(staticAccounts{err: errors.New("redis down")}))
		assert.Equal(t, http.StatusInternalServerError, do(r, header).Code)
	})

	t.Run("InvalidTokenSkipsLookup", func(t *testing.T) {
		r := newRouter(ActiveAuthMiddleware(staticAccounts{err: errors.New("must not be called")}))
		assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{"Authorization": "Bearer nope"}).Code)
	})
}

func TestQueryTokenMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/ws", QueryTokenMiddleware("token"), ActiveAuthMiddleware(nil), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})

	token, _, err := utils.GenerateToken("u-7", "user")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-7", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r := newRouter(OptionalAuthMiddleware())

	w := do(r, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":""}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	roles := staticRoles{"boss": security.RoleAdmin, "pleb": security.RoleUser}
	r := newRouter(ActiveAuthMiddleware(nil), RequireRole(roles, security.RoleAdmin))

	admin, _, _ := utils.GenerateToken("boss", "admin")
	user, _, _ := utils.GenerateToken("pleb", "admin") // token 中的 role 不可信

	assert.Equal(t, http.StatusOK, do(r, map[string]string{"Authorization": "Bearer " + admin}).Code)
	assert.Equal(t, http.StatusForbidden, do(r, map[string]string{"Authorization": "Bearer " + user}).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2)
	r := newRouter(RateLimitMiddleware(limiter))

	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, nil).Code)

	assert.Equal(t, 0, limiter.Cleanup(time.Hour))
	assert.Equal(t, 1, limiter.Cleanup(-time.Second))
}

func TestTraceMiddleware(t *testing.T) {
	r := newRouter(TraceMiddleware())

	w := do(r, map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get("X-Trace-ID"))

	w = do(r, nil)
	assert.Len(t, w.Header().Get("X-Trace-ID"), 36)
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/x", func(c *gin.Context) { panic("boom") })

	w := do(r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}
