package handler

import (
	"recipe_community/internal/domain/like/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/response"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	service service.LikeService
}

func NewLikeHandler(s service.LikeService) *LikeHandler {
	return &LikeHandler{service: s}
}

// LikeInput 点赞参数
type LikeInput struct {
	LikeableID   string `json:"likeableId" form:"likeableId" binding:"required"`
	LikeableType string `json:"likeableType" form:"likeableType" binding:"required,oneof=thread post comment"`
}

// ToggleResult 点赞结果
type ToggleResult struct {
	Liked bool `json:"liked"`
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞/取消点赞（重复调用回到原状态）
// @Tags Like
// @Accept json
// @Produce json
// @Param input body LikeInput true "目标"
// @Success 200 {object} response.Response{data=ToggleResult}
// @Router /likes/toggle [post]
func (h *LikeHandler) ToggleLike(c *gin.Context) {
	// 先鉴权，再校验参数
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input LikeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	liked, err := h.service.ToggleLike(c.Request.Context(), userID, input.LikeableID, input.LikeableType)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, ToggleResult{Liked: liked})
}

// GetSummary 点赞统计
// @Summary 点赞数以及当前用户是否已点赞
// @Tags Like
// @Param likeableId query string true "目标ID"
// @Param likeableType query string true "thread | post | comment"
// @Success 200 {object} response.Response{data=model.Summary}
// @Router /likes [get]
func (h *LikeHandler) GetSummary(c *gin.Context) {
	var input LikeInput
	if err := c.ShouldBindQuery(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	sum, err := h.service.Summary(c.Request.Context(), middleware.CurrentUserID(c), input.LikeableID, input.LikeableType)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, sum)
}
