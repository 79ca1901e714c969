package strategy

import "context"

// NotifyResult 渠道回调解析结果
type NotifyResult struct {
	OrderNo string
	TradeNo string
	Amount  float64
	Success bool
}

type PaymentStrategy interface {
	// Pay 发起支付，返回客户端拉起支付所需的参数
	Pay(ctx context.Context, orderNo string, amount float64, subject string) (string, error)

	// Notify 验签并解析回调通知
	Notify(ctx context.Context, params interface{}) (NotifyResult, error)
}
