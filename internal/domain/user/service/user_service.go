package service

import (
	"context"
	"errors"
	"time"

	"recipe_community/internal/domain/user/model"
	"recipe_community/internal/domain/user/repository"
	"recipe_community/internal/pkg/otp"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/database"
	"recipe_community/pkg/security"
	"recipe_community/pkg/utils"
)

// LoginResult 登录结果
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt *time.Time  `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// UserService 用户服务接口
type UserService interface {
	SendOTP(ctx context.Context, mobile string) error
	LoginOrRegister(ctx context.Context, mobile, code string) (*LoginResult, error)
	GetUsers(ctx context.Context, page, limit int) ([]model.User, int64, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, nickname, avatarURL *string) (*model.User, error)
	SetRole(ctx context.Context, id string, role security.Role) error
	DeleteUser(ctx context.Context, id string) error

	// 供其他模块使用
	HasRole(ctx context.Context, userID string, role security.Role) (bool, error)
	DisplayName(ctx context.Context, userID string) (string, error)
	Exists(ctx context.Context, userID string) (bool, error)
}

// userService 实现
type userService struct {
	repo repository.UserRepository
	otp  otp.OTPService
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, otp otp.OTPService) UserService {
	return &userService{repo: repo, otp: otp}
}

func (s *userService) SendOTP(ctx context.Context, mobile string) error {
	_, err := s.otp.Send(ctx, mobile)
	if errors.Is(err, otp.ErrTooFrequent) {
		return apperr.Validation(err.Error())
	}
	return apperr.Internal(err)
}

// LoginOrRegister 登录或注册
func (s *userService) LoginOrRegister(ctx context.Context, mobile, code string) (*LoginResult, error) {
	// 1. 验证验证码
	if !s.otp.Verify(ctx, mobile, code) {
		return nil, apperr.Unauthenticated("invalid verification code")
	}

	// 2. 查询用户是否存在，不存在则注册
	user, err := s.repo.GetByMobile(ctx, mobile)
	if database.IsNotFound(err) {
		user = &model.User{Mobile: mobile, Role: model.RoleUser}
		if err := s.repo.Create(ctx, user); err != nil {
			// 并发注册，回读已存在的记录
			if !database.IsUniqueViolation(err) {
				return nil, apperr.Internal(err)
			}
			if user, err = s.repo.GetByMobile(ctx, mobile); err != nil {
				return nil, apperr.Internal(err)
			}
		}
	} else if err != nil {
		return nil, apperr.Internal(err)
	}

	// 3. 检查用户状态
	switch user.Status {
	case model.StatusDeleted:
		return nil, apperr.Forbidden("account has been deleted")
	case model.StatusBanned:
		if user.BannedUntil == nil || time.Now().Before(*user.BannedUntil) {
			return nil, apperr.Forbidden("account is banned")
		}
		user.Status = model.StatusNormal
		user.BannedUntil = nil
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	// 4. 生成 Token
	token, expireAt, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expireAt, User: user}, nil
}

// GetUsers 获取用户列表（分页）
func (s *userService) GetUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()
	users, total, err := s.repo.GetList(ctx, offset, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}

// GetUser 获取单个用户（已注销视为不存在）
func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !user.Active() {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}

// UpdateProfile nil 字段保持不变
func (s *userService) UpdateProfile(ctx context.Context, id string, nickname, avatarURL *string) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if nickname != nil {
		user.Nickname = *nickname
	}
	if avatarURL != nil {
		user.AvatarURL = *avatarURL
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *userService) SetRole(ctx context.Context, id string, role security.Role) error {
	if !role.Valid() {
		return apperr.Validationf("unknown role %q", role)
	}
	ok, err := s.repo.UpdateRole(ctx, id, string(role))
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("user")
	}
	return nil
}

// DeleteUser 软删除，标记为已注销
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	ok, err := s.repo.MarkDeleted(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("user")
	}
	return nil
}

// HasRole 已注销或不存在的用户没有任何角色
func (s *userService) HasRole(ctx context.Context, userID string, role security.Role) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if database.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Active() && user.Role == string(role), nil
}

// DisplayName 未设置昵称或用户不存在时返回空串
func (s *userService) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if database.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Nickname, nil
}

// Exists 已注销的用户视为不存在
func (s *userService) Exists(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if database.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Active(), nil
}

func isNotFound(err error) bool {
	return apperr.KindOf(err) == apperr.KindNotFound
}
