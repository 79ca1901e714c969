package repository

import (
	"context"
	"time"

	"recipe_community/internal/domain/payment/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateOrder(ctx context.Context, order *model.PrintOrder) error
	GetOrderByNo(ctx context.Context, orderNo string) (*model.PrintOrder, error)
	ListOrders(ctx context.Context, userID string, offset, limit int) ([]model.PrintOrder, int64, error)
	// MarkPaid 只有待支付订单会被更新，返回是否发生了状态变化
	MarkPaid(ctx context.Context, orderNo, tradeNo string, paidAt time.Time) (bool, error)
	MarkCancelled(ctx context.Context, orderNo string) (bool, error)
	// CountPublishedRecipes ids 中已发布菜谱的数量
	CountPublishedRecipes(ctx context.Context, ids []string) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateOrder(ctx context.Context, order *model.PrintOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *paymentRepository) GetOrderByNo(ctx context.Context, orderNo string) (*model.PrintOrder, error) {
	var order model.PrintOrder
	if err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *paymentRepository) ListOrders(ctx context.Context, userID string, offset, limit int) ([]model.PrintOrder, int64, error) {
	var orders []model.PrintOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PrintOrder{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *paymentRepository) MarkPaid(ctx context.Context, orderNo, tradeNo string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PrintOrder{}).
		Where("order_no = ? AND status = ?", orderNo, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":   model.OrderStatusPaid,
			"trade_no": tradeNo,
			"paid_at":  paidAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *paymentRepository) MarkCancelled(ctx context.Context, orderNo string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PrintOrder{}).
		Where("order_no = ? AND status = ?", orderNo, model.OrderStatusPending).
		Update("status", model.OrderStatusCancelled)
	return res.RowsAffected > 0, res.Error
}

func (r *paymentRepository) CountPublishedRecipes(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("recipes").
		Where("id IN ? AND published", ids).
		Count(&n).Error
	return n, err
}
