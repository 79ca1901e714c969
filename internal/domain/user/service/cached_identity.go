package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe_community/internal/domain/user/model"
	"recipe_community/pkg/cache"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/security"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	IdentityCacheKeyPrefix = "identity:"
	IdentityCacheTTL       = 5 * time.Minute
)

// identitySnapshot 角色检查和昵称快照需要的最小信息
type identitySnapshot struct {
	Exists   bool   `json:"exists"`
	Role     string `json:"role"`
	Nickname string `json:"nickname"`
}

// CachedUserService 带缓存的用户服务
// 角色检查与昵称查询走缓存，写操作后失效
type CachedUserService struct {
	UserService
	cache cache.CacheService
}

// NewCachedUserService 创建带缓存的用户服务
func NewCachedUserService(inner UserService, c cache.CacheService) *CachedUserService {
	return &CachedUserService{UserService: inner, cache: c}
}

func identityCacheKey(id string) string {
	return fmt.Sprintf("%s%s", IdentityCacheKeyPrefix, id)
}

func (s *CachedUserService) snapshot(ctx context.Context, userID string) (identitySnapshot, error) {
	var snap identitySnapshot
	err := s.cache.Get(ctx, identityCacheKey(userID), &snap)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("identity cache read failed", zap.Error(err))
	}

	user, err := s.UserService.GetUser(ctx, userID)
	switch {
	case err == nil:
		snap = identitySnapshot{Exists: true, Role: user.Role, Nickname: user.Nickname}
	case isNotFound(err):
		snap = identitySnapshot{}
	default:
		return snap, err
	}

	if err := s.cache.Set(ctx, identityCacheKey(userID), snap, IdentityCacheTTL); err != nil {
		logger.Log.Warn("identity cache write failed", zap.Error(err))
	}
	return snap, nil
}

func (s *CachedUserService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, identityCacheKey(userID)); err != nil {
		logger.Log.Warn("identity cache invalidate failed", zap.String("user", userID), zap.Error(err))
	}
}

func (s *CachedUserService) HasRole(ctx context.Context, userID string, role security.Role) (bool, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	return snap.Exists && snap.Role == string(role), nil
}

func (s *CachedUserService) DisplayName(ctx context.Context, userID string) (string, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return "", err
	}
	return snap.Nickname, nil
}

func (s *CachedUserService) Exists(ctx context.Context, userID string) (bool, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	return snap.Exists, nil
}

func (s *CachedUserService) UpdateProfile(ctx context.Context, id string, nickname, avatarURL *string) (*model.User, error) {
	user, err := s.UserService.UpdateProfile(ctx, id, nickname, avatarURL)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return user, err
}

func (s *CachedUserService) SetRole(ctx context.Context, id string, role security.Role) error {
	err := s.UserService.SetRole(ctx, id, role)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return err
}

func (s *CachedUserService) DeleteUser(ctx context.Context, id string) error {
	err := s.UserService.DeleteUser(ctx, id)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return err
}
