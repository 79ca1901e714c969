package strategy

import (
	"context"
	"errors"
	"math"
	"net/http"

	"recipe_community/internal/pkg/config"

	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/app"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

type WechatStrategy struct {
	client  *core.Client
	config  config.WechatPayConfig
	handler *notify.Handler
}

func NewWechatStrategy(ctx context.Context, cfg config.WechatPayConfig) (*WechatStrategy, error) {
	if cfg.MchID == "" {
		return nil, errors.New("wechat pay config missing")
	}

	mchPrivateKey, err := utils.LoadPrivateKey(cfg.MchPrivateKey)
	if err != nil {
		return nil, err
	}

	// 自动下载并定期更新平台证书
	client, err := core.NewClient(ctx,
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.MchCertificateSerial, mchPrivateKey, cfg.APIv3Key),
	)
	if err != nil {
		return nil, err
	}

	certVisitor := downloader.MgrInstance().GetCertificateVisitor(cfg.MchID)
	handler := notify.NewNotifyHandler(cfg.APIv3Key, verifiers.NewSHA256WithRSAVerifier(certVisitor))

	return &WechatStrategy{client: client, config: cfg, handler: handler}, nil
}

// Pay App 下单，返回 prepay_id
func (s *WechatStrategy) Pay(ctx context.Context, orderNo string, amount float64, subject string) (string, error) {
	req := app.PrepayRequest{
		Appid:       core.String(s.config.AppID),
		Mchid:       core.String(s.config.MchID),
		Description: core.String(subject),
		OutTradeNo:  core.String(orderNo),
		NotifyUrl:   core.String(s.config.NotifyURL),
		Amount: &app.Amount{
			Total: core.Int64(toFen(amount)),
		},
	}

	svc := app.AppApiService{Client: s.client}
	resp, _, err := svc.Prepay(ctx, req)
	if err != nil {
		return "", err
	}
	return *resp.PrepayId, nil
}

// Notify params 为原始 *http.Request（签名在请求头里）
func (s *WechatStrategy) Notify(ctx context.Context, params interface{}) (NotifyResult, error) {
	req, ok := params.(*http.Request)
	if !ok {
		return NotifyResult{}, errors.New("invalid params type, expected *http.Request")
	}

	transaction := new(payments.Transaction)
	if _, err := s.handler.ParseNotifyRequest(ctx, req, transaction); err != nil {
		return NotifyResult{}, err
	}
	if transaction.OutTradeNo == nil || transaction.Amount == nil || transaction.Amount.Total == nil {
		return NotifyResult{}, errors.New("incomplete wechat transaction")
	}

	res := NotifyResult{
		OrderNo: *transaction.OutTradeNo,
		Amount:  float64(*transaction.Amount.Total) / 100.0,
		Success: transaction.TradeState != nil && *transaction.TradeState == "SUCCESS",
	}
	if transaction.TransactionId != nil {
		res.TradeNo = *transaction.TransactionId
	}
	return res, nil
}

// toFen 元转分，四舍五入避免浮点误差
func toFen(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

var _ PaymentStrategy = (*WechatStrategy)(nil)
