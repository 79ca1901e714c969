package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"recipe_community/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	codeTTL      = 5 * time.Minute
	resendWindow = time.Minute
)

// ErrTooFrequent 发送过于频繁
var ErrTooFrequent = errors.New("please wait before sending again")

type OTPService interface {
	Send(ctx context.Context, mobile string) (string, error)
	Verify(ctx context.Context, mobile, code string) bool
}

type otpService struct {
	rdb       *redis.Client
	fixedCode string // 非空时（测试环境）固定验证码
}

func NewOTPService(rdb *redis.Client, fixedCode string) OTPService {
	return &otpService{rdb: rdb, fixedCode: fixedCode}
}

func key(mobile string) string {
	return fmt.Sprintf("otp:%s", mobile)
}

// Send 生成验证码存入 Redis
// 真实场景下应调用短信服务商接口，这里只记录日志
func (s *otpService) Send(ctx context.Context, mobile string) (string, error) {
	// 5分钟有效期，剩余 > 4分钟说明刚发不久
	ttl, err := s.rdb.TTL(ctx, key(mobile)).Result()
	if err == nil && ttl > codeTTL-resendWindow {
		return "", ErrTooFrequent
	}

	code := s.fixedCode
	if code == "" {
		code, err = randomCode()
		if err != nil {
			return "", err
		}
	}

	if err := s.rdb.Set(ctx, key(mobile), code, codeTTL).Err(); err != nil {
		return "", err
	}

	logger.Log.Info("otp issued", zap.String("mobile", mobile))
	return code, nil
}

// Verify 验证成功后立即删除，防止重放
func (s *otpService) Verify(ctx context.Context, mobile, code string) bool {
	val, err := s.rdb.Get(ctx, key(mobile)).Result()
	if err != nil || val != code {
		return false
	}
	// DEL 返回 0 说明已被并发请求消费
	n, err := s.rdb.Del(ctx, key(mobile)).Result()
	return err == nil && n == 1
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
