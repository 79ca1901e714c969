package response

import (
	"errors"
	"net/http"

	"recipe_community/pkg/apperr"
	"recipe_community/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应 (HTTP 201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// HandleError 按 apperr 分类映射 HTTP 状态码与业务码
// 内部错误记录日志，只返回通用提示
func HandleError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		code := ErrInvalidParam
		if errors.Is(err, apperr.ErrRejected) {
			code = ErrContentRejected
		}
		Error(c, http.StatusBadRequest, code, apperr.Message(err))
	case apperr.KindUnauthenticated:
		Error(c, http.StatusUnauthorized, ErrTokenInvalid, apperr.Message(err))
	case apperr.KindForbidden:
		Error(c, http.StatusForbidden, ErrNoPermission, apperr.Message(err))
	case apperr.KindNotFound:
		Error(c, http.StatusNotFound, ErrNotFound, apperr.Message(err))
	case apperr.KindConflict:
		Error(c, http.StatusConflict, ErrConflict, apperr.Message(err))
	default:
		logger.Log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		Error(c, http.StatusInternalServerError, ErrServerInternal, apperr.Message(err))
	}
}
