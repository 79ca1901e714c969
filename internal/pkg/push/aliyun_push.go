package push

import (
	"context"
	"encoding/json"
	"fmt"

	"recipe_community/internal/pkg/config"
	"recipe_community/pkg/logger"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/push"
	"go.uber.org/zap"
)

type PushService interface {
	PushToAccount(ctx context.Context, accountID, title, body string, extParameters map[string]string) error
}

type AliyunPushService struct {
	client *push.Client
	appKey int64
}

func NewAliyunPushService(cfg config.PushConfig) (*AliyunPushService, error) {
	if cfg.AccessKeyID == "" || cfg.AppKey == 0 {
		return nil, fmt.Errorf("push config is missing")
	}

	client, err := push.NewClientWithAccessKey(
		cfg.RegionID,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
	)
	if err != nil {
		return nil, err
	}

	return &AliyunPushService{
		client: client,
		appKey: cfg.AppKey,
	}, nil
}

// PushToAccount 按账号推送（账号即用户 ID，客户端登录后绑定）
func (s *AliyunPushService) PushToAccount(ctx context.Context, accountID, title, body string, extParameters map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	request := push.CreatePushRequest()
	request.AppKey = requests.NewInteger(int(s.appKey))
	request.Target = "ACCOUNT"
	request.TargetValue = accountID
	request.Title = title
	request.Body = body
	request.DeviceType = "ALL"  // iOS & Android
	request.PushType = "NOTICE" // 通知

	if len(extParameters) > 0 {
		extJSON, err := json.Marshal(extParameters)
		if err != nil {
			return err
		}
		request.AndroidExtParameters = string(extJSON)
		request.IOSExtParameters = string(extJSON)
	}

	_, err := s.client.Push(request)
	return err
}

// LogPushService 未配置推送时使用，仅记录日志
type LogPushService struct{}

func (LogPushService) PushToAccount(ctx context.Context, accountID, title, body string, extParameters map[string]string) error {
	logger.Log.Debug("push skipped (not configured)",
		zap.String("account", accountID),
		zap.String("title", title),
	)
	return nil
}

// New 配置完整时返回阿里云推送，否则退化为日志实现
func New(cfg config.PushConfig) PushService {
	svc, err := NewAliyunPushService(cfg)
	if err != nil {
		logger.Log.Warn("push service disabled", zap.Error(err))
		return LogPushService{}
	}
	return svc
}
