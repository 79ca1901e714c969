package payment

import (
	"context"

	"recipe_community/internal/domain/payment/handler"
	"recipe_community/internal/domain/payment/model"
	"recipe_community/internal/domain/payment/repository"
	"recipe_community/internal/domain/payment/service"
	"recipe_community/internal/domain/payment/strategy"
	"recipe_community/internal/pkg/config"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/registry"
	"recipe_community/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentModule 打印订单与支付模块
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	return 50
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	cfg := config.GlobalConfig
	repo := repository.NewPaymentRepository(ctx.DB)
	svc := service.NewPaymentService(repo, service.Pricing{
		UnitPrice: cfg.Print.UnitPrice,
		MaxCopies: cfg.Print.MaxCopies,
	}, ctx.Notifier, ctx.Profiles)

	// 未配置的渠道不注册，下单时返回 unsupported payment channel
	if cfg.Alipay.AppID != "" {
		if s, err := strategy.NewAlipayStrategy(cfg.Alipay); err != nil {
			logger.Log.Error("failed to init alipay strategy", zap.Error(err))
		} else {
			svc.RegisterStrategy(model.ChannelAlipay, s)
		}
	}
	if cfg.Wechat.MchID != "" {
		if s, err := strategy.NewWechatStrategy(context.Background(), cfg.Wechat); err != nil {
			logger.Log.Error("failed to init wechat pay strategy", zap.Error(err))
		} else {
			svc.RegisterStrategy(model.ChannelWechat, s)
		}
	}

	setupRoutes(ctx.Router, handler.NewPaymentHandler(svc), ctx.Profiles)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler, accounts middleware.AccountChecker) {
	g := r.Group("/payment")

	// 回调无需登录，由渠道验签
	g.POST("/notify/alipay", h.AlipayNotify)
	g.POST("/notify/wechat", h.WechatNotify)

	auth := g.Group("")
	auth.Use(middleware.ActiveAuthMiddleware(accounts))
	{
		auth.POST("/orders", h.CreateCheckout)
		auth.GET("/orders", h.ListOrders)
		auth.GET("/orders/:orderNo", h.VerifyOrder)
	}
}
