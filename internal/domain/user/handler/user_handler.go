package handler

import (
	"recipe_community/internal/domain/user/model"
	"recipe_community/internal/domain/user/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/response"
	"recipe_community/pkg/security"
	"recipe_community/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// SendOTPInput 发送验证码输入
type SendOTPInput struct {
	Mobile string `json:"mobile" binding:"required,numeric,min=6,max=20"`
}

// LoginInput 登录输入
type LoginInput struct {
	Mobile string `json:"mobile" binding:"required,numeric,min=6,max=20"`
	Code   string `json:"code" binding:"required,len=6"`
}

// UpdateProfileInput 更新资料输入
type UpdateProfileInput struct {
	Nickname  *string `json:"nickname" binding:"omitempty,max=64"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url,max=512"`
}

// SetRoleInput 设置角色输入
type SetRoleInput struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// SendOTP 发送验证码
// @Summary 发送登录验证码
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body SendOTPInput true "手机号"
// @Success 200 {object} response.Response
// @Router /auth/otp [post]
func (h *UserHandler) SendOTP(c *gin.Context) {
	var input SendOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	if err := h.service.SendOTP(c.Request.Context(), input.Mobile); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}

// LoginOrRegister 登录/注册
// @Summary 验证码登录，首次登录自动注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body LoginInput true "手机号与验证码"
// @Success 200 {object} response.Response{data=service.LoginResult}
// @Router /auth/login [post]
func (h *UserHandler) LoginOrRegister(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	res, err := h.service.LoginOrRegister(c.Request.Context(), input.Mobile, input.Code)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, res)
}

// GetMe 当前用户
// @Summary 获取当前登录用户
// @Tags User
// @Produce json
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateMe 更新当前用户资料
// @Summary 更新昵称/头像
// @Tags User
// @Accept json
// @Produce json
// @Param input body UpdateProfileInput true "资料"
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), input.Nickname, input.AvatarURL)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// GetProfile 公开资料
// @Summary 获取用户公开资料
// @Tags User
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.Profile}
// @Router /users/{id} [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user.Profile())
}

// GetUsers 用户列表 (管理员)
// @Summary 用户列表
// @Tags Admin
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /admin/users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	p.GetPageOffset()

	users, total, err := h.service.GetUsers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	response.Success(c, utils.PageResult{List: users, Total: total, Page: p.Page, Limit: p.Limit})
}

// SetRole 设置角色 (管理员)
// @Summary 设置用户角色
// @Tags Admin
// @Accept json
// @Param id path string true "用户ID"
// @Param input body SetRoleInput true "角色"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) SetRole(c *gin.Context) {
	var input SetRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	if err := h.service.SetRole(c.Request.Context(), c.Param("id"), security.Role(input.Role)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}

// DeleteUser 注销用户 (管理员)
// @Summary 注销用户（软删除）
// @Tags Admin
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response
// @Router /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}
