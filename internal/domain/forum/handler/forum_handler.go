package handler

import (
	"strconv"

	"recipe_community/internal/domain/forum/model"
	"recipe_community/internal/domain/forum/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/response"
	"recipe_community/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ForumHandler struct {
	service service.ForumService
}

func NewForumHandler(s service.ForumService) *ForumHandler {
	return &ForumHandler{service: s}
}

// CreateThreadInput 发帖参数，长度按字符在 service 层校验
type CreateThreadInput struct {
	Region   string `json:"region" binding:"required"`
	Scope    string `json:"scope" binding:"required,oneof=country state"`
	Category string `json:"category" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// CreatePostInput 回复参数
type CreatePostInput struct {
	ParentPostID *string `json:"parentPostId"`
	Content      string  `json:"content" binding:"required"`
}

// UpdatePostInput 编辑回复参数
type UpdatePostInput struct {
	Content string `json:"content" binding:"required"`
}

// ListThreadsQuery 列表筛选
type ListThreadsQuery struct {
	utils.Pagination
	Region   string `form:"region"`
	Scope    string `form:"scope"`
	Category string `form:"category"`
}

// CreateThread 发起讨论
// @Summary 发起讨论串
// @Tags Forum
// @Accept json
// @Produce json
// @Param input body CreateThreadInput true "讨论串"
// @Success 201 {object} response.Response{data=model.Thread}
// @Router /forum/threads [post]
func (h *ForumHandler) CreateThread(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input CreateThreadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	thread, err := h.service.CreateThread(c.Request.Context(), userID, service.CreateThreadInput{
		Region:   input.Region,
		Scope:    input.Scope,
		Category: input.Category,
		Title:    input.Title,
		Content:  input.Content,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, thread)
}

// ListThreads 讨论串列表
// @Summary 讨论串列表
// @Tags Forum
// @Param region query string false "地区"
// @Param scope query string false "country | state"
// @Param category query string false "分类"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /forum/threads [get]
func (h *ForumHandler) ListThreads(c *gin.Context) {
	var q ListThreadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	q.GetPageOffset()

	filter := model.ThreadFilter{Region: q.Region, Scope: q.Scope, Category: q.Category}
	threads, total, err := h.service.ListThreads(c.Request.Context(), filter, q.Page, q.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if threads == nil {
		threads = []model.Thread{}
	}
	response.Success(c, utils.PageResult{List: threads, Total: total, Page: q.Page, Limit: q.Limit})
}

// GetThread 讨论串详情
// @Summary 讨论串详情（浏览数 +1）
// @Tags Forum
// @Param id path string true "讨论串ID"
// @Success 200 {object} response.Response{data=model.Thread}
// @Router /forum/threads/{id} [get]
func (h *ForumHandler) GetThread(c *gin.Context) {
	thread, err := h.service.GetThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, thread)
}

// ListPosts 回复列表
// @Summary 回复列表，tree=true 时返回嵌套结构
// @Tags Forum
// @Param id path string true "讨论串ID"
// @Param tree query bool false "嵌套"
// @Success 200 {object} response.Response
// @Router /forum/threads/{id}/posts [get]
func (h *ForumHandler) ListPosts(c *gin.Context) {
	posts, err := h.service.ListPosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	if tree, _ := strconv.ParseBool(c.Query("tree")); tree {
		response.Success(c, service.BuildTree(posts))
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	response.Success(c, posts)
}

// CreatePost 回复
// @Summary 回复讨论串或另一条回复
// @Tags Forum
// @Accept json
// @Param id path string true "讨论串ID"
// @Param input body CreatePostInput true "回复"
// @Success 201 {object} response.Response{data=model.Post}
// @Router /forum/threads/{id}/posts [post]
func (h *ForumHandler) CreatePost(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), service.CreatePostInput{
		ThreadID:     c.Param("id"),
		ParentPostID: input.ParentPostID,
		AuthorID:     userID,
		Content:      input.Content,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, post)
}

// UpdatePost 编辑回复
// @Summary 编辑自己的回复
// @Tags Forum
// @Accept json
// @Param id path string true "回复ID"
// @Param input body UpdatePostInput true "内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Router /forum/posts/{id} [patch]
func (h *ForumHandler) UpdatePost(c *gin.Context) {
	var input UpdatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	post, err := h.service.UpdatePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), input.Content)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 删除回复
// @Summary 删除自己的回复，后代一并删除
// @Tags Forum
// @Param id path string true "回复ID"
// @Success 200 {object} response.Response
// @Router /forum/posts/{id} [delete]
func (h *ForumHandler) DeletePost(c *gin.Context) {
	if err := h.service.DeletePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}
