package handler

import (
	"recipe_community/internal/domain/messaging/model"
	"recipe_community/internal/domain/messaging/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/realtime"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/response"
	"recipe_community/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessagingHandler struct {
	service service.MessagingService
	hub     *realtime.Hub
}

func NewMessagingHandler(s service.MessagingService, hub *realtime.Hub) *MessagingHandler {
	return &MessagingHandler{service: s, hub: hub}
}

// StartConversationInput 发起会话参数
type StartConversationInput struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// SendMessageInput 发送消息参数，content 与 attachmentUrl 至少一个
type SendMessageInput struct {
	Content        string `json:"content"`
	AttachmentURL  string `json:"attachmentUrl" binding:"omitempty,url,max=512"`
	AttachmentType string `json:"attachmentType" binding:"omitempty,oneof=image video file"`
}

// StartConversation 获取或创建会话
// @Summary 获取或创建与某个用户的会话
// @Tags Messaging
// @Accept json
// @Param input body StartConversationInput true "对方"
// @Success 200 {object} response.Response{data=model.Conversation}
// @Router /conversations [post]
func (h *MessagingHandler) StartConversation(c *gin.Context) {
	var input StartConversationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	conv, err := h.service.GetOrCreateConversation(c.Request.Context(), middleware.CurrentUserID(c), input.ParticipantID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, conv)
}

// ListConversations 我的会话
// @Summary 当前用户的会话，最近活跃的在前
// @Tags Messaging
// @Success 200 {object} response.Response{data=[]model.Conversation}
// @Router /conversations [get]
func (h *MessagingHandler) ListConversations(c *gin.Context) {
	convs, err := h.service.ListConversations(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	response.Success(c, convs)
}

// SendMessage 发送消息
// @Summary 发送消息
// @Tags Messaging
// @Accept json
// @Param id path string true "会话ID"
// @Param input body SendMessageInput true "消息"
// @Success 201 {object} response.Response{data=model.Message}
// @Router /conversations/{id}/messages [post]
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	msg, err := h.service.SendMessage(c.Request.Context(), service.SendMessageInput{
		ConversationID: c.Param("id"),
		SenderID:       middleware.CurrentUserID(c),
		Content:        input.Content,
		AttachmentURL:  input.AttachmentURL,
		AttachmentType: input.AttachmentType,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, msg)
}

// ListMessages 消息列表
// @Summary 会话消息，按时间正序
// @Tags Messaging
// @Param id path string true "会话ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /conversations/{id}/messages [get]
func (h *MessagingHandler) ListMessages(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	p.GetPageOffset()

	msgs, total, err := h.service.ListMessages(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	response.Success(c, utils.PageResult{List: msgs, Total: total, Page: p.Page, Limit: p.Limit})
}

// Subscribe 加入会话的实时通道
// @Summary WebSocket 实时消息（?token= 传递登录凭证）
// @Tags Messaging
// @Param id path string true "会话ID"
// @Router /ws/conversations/{id} [get]
func (h *MessagingHandler) Subscribe(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	conv, err := h.service.Authorize(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	// 握手失败时 upgrader 已写回错误响应
	if err := h.hub.ServeWS(c.Writer, c.Request, realtime.ConversationRoom(conv.ID), userID); err != nil {
		logger.Log.Warn("websocket join failed", zap.String("conversation", conv.ID), zap.Error(err))
	}
}
