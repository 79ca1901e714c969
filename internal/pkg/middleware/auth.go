package middleware

import (
	"context"
	"net/http"
	"strings"

	"recipe_community/pkg/apperr"
	"recipe_community/pkg/response"
	"recipe_community/pkg/security"
	"recipe_community/pkg/utils"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// AccountChecker 身份服务判断账号是否存在且未注销
type AccountChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// ActiveAuthMiddleware JWT认证中间件，accounts 非空时确认账号仍然有效，已注销账号的 token 立即失效
// 查询走身份缓存，注销时缓存会被清除
func ActiveAuthMiddleware(accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, err.Error())
			c.Abort()
			return
		}

		if accounts != nil {
			ok, err := accounts.Exists(c.Request.Context(), claims.UserID)
			if err != nil {
				response.HandleError(c, apperr.Internal(err))
				c.Abort()
				return
			}
			if !ok {
				response.Error(c, http.StatusUnauthorized, response.ErrUserNotFound, "account is no longer active")
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware 有合法 token 时写入身份，否则按匿名放行
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, err := parseBearer(c); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

type authError string

func (e authError) Error() string { return string(e) }

func parseBearer(c *gin.Context) (*utils.Claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, authError("Authorization header is required")
	}

	// 检查格式 "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, authError("Invalid authorization header format")
	}

	claims, err := utils.ParseToken(parts[1])
	if err != nil {
		return nil, authError("Invalid or expired token")
	}
	return claims, nil
}

// RequireRole 角色以身份服务为准，不信任 token 中的 role
func RequireRole(checker security.RoleChecker, role security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := security.RequireRole(c.Request.Context(), checker, CurrentUserID(c), role); err != nil {
			response.HandleError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID 未登录时返回空串
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// MustUserID 未登录返回 Unauthenticated 错误
func MustUserID(c *gin.Context) (string, error) {
	id := CurrentUserID(c)
	if id == "" {
		return "", apperr.Unauthenticated("authentication required")
	}
	return id, nil
}

// QueryTokenMiddleware 浏览器的 WebSocket 握手无法携带自定义头，允许用 ?token= 传递
// 需放在 ActiveAuthMiddleware 之前
func QueryTokenMiddleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query(param); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
