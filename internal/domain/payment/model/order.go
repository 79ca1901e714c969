package model

import (
	"time"

	baseModel "recipe_community/pkg/model"

	"gorm.io/datatypes"
)

// OrderStatus 订单状态，落库为 SMALLINT
type OrderStatus int16

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusPaid
	OrderStatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusPaid:
		return "paid"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	ChannelAlipay = "alipay"
	ChannelWechat = "wechat"
)

// PrintOrder 菜谱打印订单
type PrintOrder struct {
	baseModel.BaseModel
	OrderNo   string                      `gorm:"size:64;uniqueIndex;not null" json:"orderNo"`
	UserID    string                      `gorm:"type:uuid;not null" json:"userId"`
	RecipeIDs datatypes.JSONSlice[string] `gorm:"column:recipe_ids;type:jsonb" json:"recipeIds"`
	Copies    int                         `gorm:"not null" json:"copies"`
	Amount    float64                     `gorm:"type:numeric(12,2);not null" json:"amount"`
	Channel   string                      `gorm:"size:16;not null" json:"channel"`
	Status    OrderStatus                 `gorm:"type:smallint;not null;default:0" json:"status"`
	TradeNo   string                      `gorm:"size:64;not null;default:''" json:"tradeNo,omitempty"`
	PaidAt    *time.Time                  `json:"paidAt,omitempty"`
}

func (PrintOrder) TableName() string { return "print_orders" }

func (o *PrintOrder) GetOwnerID() string { return o.UserID }

// Verification 订单核验结果
type Verification struct {
	OrderNo  string      `json:"orderNo"`
	Status   OrderStatus `json:"status"`
	Amount   float64     `json:"amount"`
	Customer string      `json:"customer"`
	PaidAt   *time.Time  `json:"paidAt,omitempty"`
}
