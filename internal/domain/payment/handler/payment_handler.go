package handler

import (
	"net/http"

	"recipe_community/internal/domain/payment/model"
	"recipe_community/internal/domain/payment/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/response"
	"recipe_community/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

// CheckoutInput 打印下单参数
type CheckoutInput struct {
	RecipeIDs []string `json:"recipeIds" binding:"required,min=1,dive,uuid"`
	Copies    int      `json:"copies" binding:"required,gt=0"`
	Channel   string   `json:"channel" binding:"required,oneof=alipay wechat"`
}

// CreateCheckout 创建打印订单
// @Summary 创建菜谱打印订单并拉起支付
// @Tags Payment
// @Accept json
// @Produce json
// @Param input body CheckoutInput true "订单"
// @Success 201 {object} response.Response{data=service.Checkout}
// @Router /payment/orders [post]
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	checkout, err := h.service.CreateCheckout(c.Request.Context(), userID, service.CheckoutInput{
		RecipeIDs: input.RecipeIDs,
		Copies:    input.Copies,
		Channel:   input.Channel,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, checkout)
}

// VerifyOrder 核验订单
// @Summary 查询订单支付状态（仅下单人）
// @Tags Payment
// @Param orderNo path string true "订单号"
// @Success 200 {object} response.Response{data=model.Verification}
// @Router /payment/orders/{orderNo} [get]
func (h *PaymentHandler) VerifyOrder(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	v, err := h.service.VerifyOrder(c.Request.Context(), userID, c.Param("orderNo"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, v)
}

// ListOrders 我的订单
// @Summary 我的打印订单
// @Tags Payment
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /payment/orders [get]
func (h *PaymentHandler) ListOrders(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	p.GetPageOffset()

	orders, total, err := h.service.ListOrders(c.Request.Context(), userID, p.Page, p.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if orders == nil {
		orders = []model.PrintOrder{}
	}
	response.Success(c, utils.PageResult{List: orders, Total: total, Page: p.Page, Limit: p.Limit})
}

// AlipayNotify 支付宝回调
// @Summary 支付宝异步通知
// @Tags Payment
// @Router /payment/notify/alipay [post]
func (h *PaymentHandler) AlipayNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusOK, "fail")
		return
	}
	if err := h.service.HandleNotify(c.Request.Context(), model.ChannelAlipay, c.Request.Form); err != nil {
		logger.Log.Warn("alipay notify rejected", zap.Error(err))
		// 返回 fail 支付宝会重试
		c.String(http.StatusOK, "fail")
		return
	}
	c.String(http.StatusOK, "success")
}

// WechatNotify 微信支付回调
// @Summary 微信支付异步通知
// @Tags Payment
// @Router /payment/notify/wechat [post]
func (h *PaymentHandler) WechatNotify(c *gin.Context) {
	if err := h.service.HandleNotify(c.Request.Context(), model.ChannelWechat, c.Request); err != nil {
		logger.Log.Warn("wechat notify rejected", zap.Error(err))
		// 非 2xx 微信会重试
		c.JSON(http.StatusInternalServerError, gin.H{"code": "FAIL", "message": apperr.Message(err)})
		return
	}
	c.Status(http.StatusOK)
}
