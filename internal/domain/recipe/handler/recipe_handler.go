package handler

import (
	"recipe_community/internal/domain/recipe/model"
	"recipe_community/internal/domain/recipe/service"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/response"
	"recipe_community/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RecipeHandler struct {
	service service.RecipeService
}

func NewRecipeHandler(s service.RecipeService) *RecipeHandler {
	return &RecipeHandler{service: s}
}

// RecipeInput 菜谱参数，长文本为 Markdown
type RecipeInput struct {
	Country         string   `json:"country" binding:"required,notblank"`
	Region          string   `json:"region"`
	Title           string   `json:"title" binding:"required,notblank"`
	History         string   `json:"history"`
	GeoHistory      string   `json:"geoHistory"`
	RecipeBody      string   `json:"recipeBody"`
	Directions      string   `json:"directions"`
	Influences      string   `json:"influences"`
	Traditions      string   `json:"traditions"`
	PhotoURLs       []string `json:"photoUrls" binding:"omitempty,dive,url"`
	RecipeImageURLs []string `json:"recipeImageUrls" binding:"omitempty,dive,url"`
	DishImageURLs   []string `json:"dishImageUrls" binding:"omitempty,dive,url"`
}

func (in RecipeInput) toService() service.RecipeInput {
	return service.RecipeInput{
		Country:         in.Country,
		Region:          in.Region,
		Title:           in.Title,
		History:         in.History,
		GeoHistory:      in.GeoHistory,
		RecipeBody:      in.RecipeBody,
		Directions:      in.Directions,
		Influences:      in.Influences,
		Traditions:      in.Traditions,
		PhotoURLs:       in.PhotoURLs,
		RecipeImageURLs: in.RecipeImageURLs,
		DishImageURLs:   in.DishImageURLs,
	}
}

// PublishInput 审核发布
type PublishInput struct {
	Published *bool `json:"published" binding:"required"`
}

// ListRecipesQuery 列表筛选
type ListRecipesQuery struct {
	utils.Pagination
	Country string `form:"country"`
}

// SearchQuery 全文检索
type SearchQuery struct {
	utils.Pagination
	Q string `form:"q" binding:"required"`
}

// CommentInput 评论参数
type CommentInput struct {
	ParentID *string `json:"parentId"`
	Content  string  `json:"content" binding:"required"`
}

// UpdateCommentInput 编辑评论
type UpdateCommentInput struct {
	Content string `json:"content" binding:"required"`
}

// CreateRecipe 提交菜谱
// @Summary 提交菜谱（待审核）
// @Tags Recipe
// @Accept json
// @Produce json
// @Param input body RecipeInput true "菜谱"
// @Success 201 {object} response.Response{data=model.Recipe}
// @Router /recipes [post]
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	recipe, err := h.service.CreateRecipe(c.Request.Context(), userID, input.toService())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, recipe)
}

// UpdateRecipe 编辑菜谱
// @Summary 编辑菜谱（仅作者）
// @Tags Recipe
// @Param id path string true "菜谱ID"
// @Param input body RecipeInput true "菜谱"
// @Success 200 {object} response.Response{data=model.Recipe}
// @Router /recipes/{id} [put]
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	recipe, err := h.service.UpdateRecipe(c.Request.Context(), userID, c.Param("id"), input.toService())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, recipe)
}

// GetRecipe 菜谱详情
// @Summary 菜谱详情（含渲染后的 HTML）
// @Tags Recipe
// @Param id path string true "菜谱ID"
// @Success 200 {object} response.Response{data=model.RecipeView}
// @Router /recipes/{id} [get]
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	view, err := h.service.GetRecipe(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, view)
}

// ListRecipes 已发布菜谱
// @Summary 已发布菜谱列表
// @Tags Recipe
// @Param country query string false "国家"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /recipes [get]
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var q ListRecipesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	q.GetPageOffset()

	recipes, total, err := h.service.ListRecipes(c.Request.Context(), q.Country, q.Page, q.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	response.Success(c, utils.PageResult{List: recipes, Total: total, Page: q.Page, Limit: q.Limit})
}

// SearchRecipes 全文检索
// @Summary 全文检索已发布菜谱
// @Tags Recipe
// @Param q query string true "关键词"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /recipes/search [get]
func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	q.GetPageOffset()

	results, total, err := h.service.SearchRecipes(c.Request.Context(), q.Q, q.Page, q.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if results == nil {
		results = []model.RecipeSummary{}
	}
	response.Success(c, utils.PageResult{List: results, Total: total, Page: q.Page, Limit: q.Limit})
}

// SetPublished 审核发布
// @Summary 发布/下架菜谱（管理员）
// @Tags Admin
// @Param id path string true "菜谱ID"
// @Param input body PublishInput true "发布状态"
// @Success 200 {object} response.Response
// @Router /admin/recipes/{id}/publish [put]
func (h *RecipeHandler) SetPublished(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input PublishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	if err := h.service.SetPublished(c.Request.Context(), userID, c.Param("id"), *input.Published); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"published": *input.Published})
}

// TranslateRecipe 菜谱译文
// @Summary 获取菜谱译文（按需机器翻译）
// @Tags Recipe
// @Param id path string true "菜谱ID"
// @Param lang path string true "目标语言，如 en"
// @Success 200 {object} response.Response{data=model.RecipeTranslation}
// @Router /recipes/{id}/translations/{lang} [get]
func (h *RecipeHandler) TranslateRecipe(c *gin.Context) {
	tr, err := h.service.TranslateRecipe(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), c.Param("lang"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tr)
}

// ListComments 评论列表
// @Summary 菜谱评论（按时间正序）
// @Tags Recipe
// @Param id path string true "菜谱ID"
// @Success 200 {object} response.Response{data=[]model.RecipeComment}
// @Router /recipes/{id}/comments [get]
func (h *RecipeHandler) ListComments(c *gin.Context) {
	comments, err := h.service.ListComments(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if comments == nil {
		comments = []model.RecipeComment{}
	}
	response.Success(c, comments)
}

// CreateComment 发表评论
// @Summary 发表评论或回复
// @Tags Recipe
// @Param id path string true "菜谱ID"
// @Param input body CommentInput true "评论"
// @Success 201 {object} response.Response{data=model.RecipeComment}
// @Router /recipes/{id}/comments [post]
func (h *RecipeHandler) CreateComment(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), service.CreateCommentInput{
		RecipeID: c.Param("id"),
		ParentID: input.ParentID,
		AuthorID: userID,
		Content:  input.Content,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, comment)
}

// UpdateComment 编辑评论
// @Summary 编辑评论（仅作者）
// @Tags Recipe
// @Param id path string true "评论ID"
// @Param input body UpdateCommentInput true "内容"
// @Success 200 {object} response.Response{data=model.RecipeComment}
// @Router /recipe-comments/{id} [patch]
func (h *RecipeHandler) UpdateComment(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var input UpdateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	comment, err := h.service.UpdateComment(c.Request.Context(), userID, c.Param("id"), input.Content)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, comment)
}

// DeleteComment 删除评论，回复一并删除
// @Summary 删除评论（仅作者）
// @Tags Recipe
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response
// @Router /recipe-comments/{id} [delete]
func (h *RecipeHandler) DeleteComment(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if err := h.service.DeleteComment(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, nil)
}
