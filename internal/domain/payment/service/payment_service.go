package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"recipe_community/internal/domain/payment/model"
	"recipe_community/internal/domain/payment/repository"
	"recipe_community/internal/domain/payment/strategy"
	"recipe_community/internal/pkg/worker"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/database"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/metrics"
	"recipe_community/pkg/security"
	"recipe_community/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DisplayNameLookup 核验订单时展示下单人
type DisplayNameLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Pricing 打印定价
type Pricing struct {
	UnitPrice  float64 // 每道菜谱每份
	MaxCopies  int
	MaxRecipes int
}

// CheckoutInput 下单参数
type CheckoutInput struct {
	RecipeIDs []string
	Copies    int
	Channel   string
}

// Checkout 下单结果
type Checkout struct {
	Order    *model.PrintOrder `json:"order"`
	PayParam string            `json:"payParam"`
}

type PaymentService interface {
	RegisterStrategy(channel string, s strategy.PaymentStrategy)
	CreateCheckout(ctx context.Context, userID string, in CheckoutInput) (*Checkout, error)
	VerifyOrder(ctx context.Context, userID, orderNo string) (*model.Verification, error)
	ListOrders(ctx context.Context, userID string, page, limit int) ([]model.PrintOrder, int64, error)
	HandleNotify(ctx context.Context, channel string, params interface{}) error
}

type paymentService struct {
	repo       repository.PaymentRepository
	strategies map[string]strategy.PaymentStrategy
	pricing    Pricing
	notifier   worker.Notifier
	profiles   DisplayNameLookup
}

func NewPaymentService(repo repository.PaymentRepository, pricing Pricing, notifier worker.Notifier, profiles DisplayNameLookup) PaymentService {
	if pricing.MaxRecipes <= 0 {
		pricing.MaxRecipes = 50
	}
	return &paymentService{
		repo:       repo,
		strategies: make(map[string]strategy.PaymentStrategy),
		pricing:    pricing,
		notifier:   notifier,
		profiles:   profiles,
	}
}

// RegisterStrategy 注册支付渠道，只在初始化阶段调用
func (s *paymentService) RegisterStrategy(channel string, st strategy.PaymentStrategy) {
	s.strategies[channel] = st
}

// dedupe 去重并保持顺序
func dedupe(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperr.Validationf("invalid recipe id: %q", id)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Amount 份数 × 单价 × 菜谱数，按分取整
func (p Pricing) Amount(copies, recipes int) float64 {
	return math.Round(float64(copies)*p.UnitPrice*float64(recipes)*100) / 100
}

func newOrderNo() string {
	return time.Now().Format("20060102150405") + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func (s *paymentService) CreateCheckout(ctx context.Context, userID string, in CheckoutInput) (*Checkout, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	st, ok := s.strategies[in.Channel]
	if !ok {
		return nil, apperr.Validation("unsupported payment channel")
	}
	if in.Copies <= 0 || in.Copies > s.pricing.MaxCopies {
		return nil, apperr.Validationf("copies must be between 1 and %d", s.pricing.MaxCopies)
	}
	ids, err := dedupe(in.RecipeIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperr.Validation("at least one recipe is required")
	}
	if len(ids) > s.pricing.MaxRecipes {
		return nil, apperr.Validationf("at most %d recipes per order", s.pricing.MaxRecipes)
	}

	n, err := s.repo.CountPublishedRecipes(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if int(n) != len(ids) {
		return nil, apperr.NotFound("recipe")
	}

	order := &model.PrintOrder{
		OrderNo:   newOrderNo(),
		UserID:    userID,
		RecipeIDs: datatypes.JSONSlice[string](ids),
		Copies:    in.Copies,
		Amount:    s.pricing.Amount(in.Copies, len(ids)),
		Channel:   in.Channel,
		Status:    model.OrderStatusPending,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Internal(err)
	}
	metrics.RecordPrintOrder(order.Channel, "created")

	subject := fmt.Sprintf("Recipe print x%d (%d recipes)", order.Copies, len(ids))
	payParam, err := st.Pay(ctx, order.OrderNo, order.Amount, subject)
	if err != nil {
		// 拉起支付失败，订单作废
		if _, cerr := s.repo.MarkCancelled(ctx, order.OrderNo); cerr != nil {
			logger.Log.Error("cancel order after pay failure", zap.String("order", order.OrderNo), zap.Error(cerr))
		}
		return nil, apperr.Internal(fmt.Errorf("%s pay: %w", order.Channel, err))
	}
	return &Checkout{Order: order, PayParam: payParam}, nil
}

func (s *paymentService) loadOwnedOrder(ctx context.Context, userID, orderNo string) (*model.PrintOrder, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	order, err := s.repo.GetOrderByNo(ctx, orderNo)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := security.Authorize(userID, order); err != nil {
		return nil, err
	}
	return order, nil
}

// VerifyOrder 下单人核对订单状态
func (s *paymentService) VerifyOrder(ctx context.Context, userID, orderNo string) (*model.Verification, error) {
	order, err := s.loadOwnedOrder(ctx, userID, orderNo)
	if err != nil {
		return nil, err
	}

	customer := ""
	if s.profiles != nil {
		name, err := s.profiles.DisplayName(ctx, order.UserID)
		if err != nil {
			logger.Log.Warn("display name lookup failed", zap.String("user", order.UserID), zap.Error(err))
		}
		customer = name
	}

	return &model.Verification{
		OrderNo:  order.OrderNo,
		Status:   order.Status,
		Amount:   order.Amount,
		Customer: customer,
		PaidAt:   order.PaidAt,
	}, nil
}

func (s *paymentService) ListOrders(ctx context.Context, userID string, page, limit int) ([]model.PrintOrder, int64, error) {
	if userID == "" {
		return nil, 0, apperr.Unauthenticated("authentication required")
	}
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()

	orders, total, err := s.repo.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return orders, total, nil
}

// HandleNotify 回调可能重复送达，只有待支付订单会发生状态变化
func (s *paymentService) HandleNotify(ctx context.Context, channel string, params interface{}) error {
	st, ok := s.strategies[channel]
	if !ok {
		return apperr.Validation("unsupported payment channel")
	}

	res, err := st.Notify(ctx, params)
	if err != nil {
		return apperr.Validation("invalid notification: " + err.Error())
	}

	order, err := s.repo.GetOrderByNo(ctx, res.OrderNo)
	if database.IsNotFound(err) {
		return apperr.NotFound("order")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if order.Channel != channel {
		return apperr.Validation("notification channel does not match order")
	}

	if !res.Success {
		changed, err := s.repo.MarkCancelled(ctx, order.OrderNo)
		if err != nil {
			return apperr.Internal(err)
		}
		if changed {
			metrics.RecordPrintOrder(channel, "cancelled")
		}
		return nil
	}

	if math.Abs(res.Amount-order.Amount) >= 0.005 {
		logger.Log.Error("payment amount mismatch",
			zap.String("order", order.OrderNo),
			zap.Float64("expected", order.Amount),
			zap.Float64("paid", res.Amount),
		)
		return apperr.Validation("paid amount does not match order")
	}

	changed, err := s.repo.MarkPaid(ctx, order.OrderNo, res.TradeNo, time.Now())
	if err != nil {
		return apperr.Internal(err)
	}
	if !changed {
		return nil
	}
	metrics.RecordPrintOrder(channel, "paid")

	if s.notifier != nil {
		s.notifier.Notify(worker.Notification{
			AccountID: order.UserID,
			Title:     "Payment received",
			Body:      fmt.Sprintf("Order %s is paid. Your recipes are headed to the printer.", order.OrderNo),
			Ext:       map[string]string{"orderNo": order.OrderNo},
		})
	}
	return nil
}
