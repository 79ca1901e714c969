package security

import (
	"context"

	"recipe_community/pkg/apperr"
)

// Role 角色定义
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RoleChecker 角色检查（由身份服务实现，按需注入）
type RoleChecker interface {
	HasRole(ctx context.Context, userID string, role Role) (bool, error)
}

// ResourceOwner 资源所有者接口
type ResourceOwner interface {
	GetOwnerID() string
}

// CheckResourceOwnership 检查资源所有权
func CheckResourceOwnership(userID string, resource ResourceOwner) bool {
	return userID != "" && resource.GetOwnerID() == userID
}

// Authorize 要求 actor 为资源所有者
// 未登录返回 Unauthenticated，非所有者返回 Forbidden
func Authorize(actorID string, resource ResourceOwner) error {
	if actorID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	if !CheckResourceOwnership(actorID, resource) {
		return apperr.Forbidden("you do not own this resource")
	}
	return nil
}

// AuthorizeOwnerOrRole 所有者或拥有指定角色（如管理员）均可放行
func AuthorizeOwnerOrRole(ctx context.Context, checker RoleChecker, actorID string, resource ResourceOwner, role Role) error {
	err := Authorize(actorID, resource)
	if err == nil || apperr.KindOf(err) != apperr.KindForbidden || checker == nil {
		return err
	}
	ok, cerr := checker.HasRole(ctx, actorID, role)
	if cerr != nil {
		return apperr.Internal(cerr)
	}
	if !ok {
		return err
	}
	return nil
}

// RequireRole 要求 actor 拥有指定角色
func RequireRole(ctx context.Context, checker RoleChecker, actorID string, role Role) error {
	if actorID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	ok, err := checker.HasRole(ctx, actorID, role)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.Forbidden("role required: " + string(role))
	}
	return nil
}
