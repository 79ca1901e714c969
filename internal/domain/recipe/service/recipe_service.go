package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"recipe_community/internal/domain/recipe/model"
	"recipe_community/internal/domain/recipe/repository"
	"recipe_community/internal/pkg/moderation"
	"recipe_community/internal/pkg/translate"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/database"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/metrics"
	"recipe_community/pkg/richtext"
	"recipe_community/pkg/security"
	"recipe_community/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DisplayNameLookup 身份服务提供的昵称查询
type DisplayNameLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// RecipeInput 创建/更新菜谱参数，长文本为 Markdown
type RecipeInput struct {
	Country         string
	Region          string
	Title           string
	History         string
	GeoHistory      string
	RecipeBody      string
	Directions      string
	Influences      string
	Traditions      string
	PhotoURLs       []string
	RecipeImageURLs []string
	DishImageURLs   []string
}

// CreateCommentInput 创建评论参数
type CreateCommentInput struct {
	RecipeID string
	ParentID *string
	AuthorID string
	Content  string
}

type RecipeService interface {
	CreateRecipe(ctx context.Context, authorID string, in RecipeInput) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, actorID, recipeID string, in RecipeInput) (*model.Recipe, error)
	GetRecipe(ctx context.Context, viewerID, recipeID string) (*model.RecipeView, error)
	ListRecipes(ctx context.Context, country string, page, limit int) ([]model.Recipe, int64, error)
	SearchRecipes(ctx context.Context, query string, page, limit int) ([]model.RecipeSummary, int64, error)
	SetPublished(ctx context.Context, actorID, recipeID string, published bool) error

	TranslateRecipe(ctx context.Context, viewerID, recipeID, language string) (*model.RecipeTranslation, error)

	CreateComment(ctx context.Context, in CreateCommentInput) (*model.RecipeComment, error)
	UpdateComment(ctx context.Context, actorID, commentID, content string) (*model.RecipeComment, error)
	DeleteComment(ctx context.Context, actorID, commentID string) error
	ListComments(ctx context.Context, viewerID, recipeID string) ([]model.RecipeComment, error)
}

type recipeService struct {
	repo       repository.RecipeRepository
	search     repository.SearchRepository
	moderator  moderation.Checker
	roles      security.RoleChecker
	profiles   DisplayNameLookup
	translator translate.Translator
	text       *richtext.Processor
}

func NewRecipeService(
	repo repository.RecipeRepository,
	search repository.SearchRepository,
	moderator moderation.Checker,
	roles security.RoleChecker,
	profiles DisplayNameLookup,
	translator translate.Translator,
	text *richtext.Processor,
) RecipeService {
	if text == nil {
		text = richtext.New()
	}
	return &recipeService{
		repo:       repo,
		search:     search,
		moderator:  moderator,
		roles:      roles,
		profiles:   profiles,
		translator: translator,
		text:       text,
	}
}

var errContentRejected = apperr.Rejected("content violates community guidelines")

// SupportedLanguages 机器翻译目标语言
var SupportedLanguages = map[string]bool{
	"en": true, "zh": true, "zh-tw": true, "es": true, "fr": true, "de": true,
	"it": true, "pt": true, "ru": true, "ja": true, "ko": true, "ar": true,
	"hi": true, "vi": true, "th": true, "id": true, "tr": true,
}

// --- Recipe ---

// normalize 短字段去标签，长字段保留 Markdown 原文
func (s *recipeService) normalize(in RecipeInput) (RecipeInput, error) {
	in.Country = s.text.PlainText(in.Country)
	in.Region = s.text.PlainText(in.Region)
	in.Title = s.text.PlainText(in.Title)

	switch {
	case in.Country == "":
		return in, apperr.Validation("country is required")
	case utf8.RuneCountInString(in.Country) > 64:
		return in, apperr.Validation("country must be at most 64 characters")
	case utf8.RuneCountInString(in.Region) > 128:
		return in, apperr.Validation("region must be at most 128 characters")
	case in.Title == "":
		return in, apperr.Validation("title is required")
	case utf8.RuneCountInString(in.Title) > model.MaxTitleLength:
		return in, apperr.Validationf("title must be at most %d characters", model.MaxTitleLength)
	}

	long := map[string]string{
		"history":    in.History,
		"geoHistory": in.GeoHistory,
		"recipeBody": in.RecipeBody,
		"directions": in.Directions,
		"influences": in.Influences,
		"traditions": in.Traditions,
	}
	for name, v := range long {
		if utf8.RuneCountInString(v) > model.MaxTextLength {
			return in, apperr.Validationf("%s must be at most %d characters", name, model.MaxTextLength)
		}
	}

	images := map[string][]string{
		"photoUrls":       in.PhotoURLs,
		"recipeImageUrls": in.RecipeImageURLs,
		"dishImageUrls":   in.DishImageURLs,
	}
	for name, urls := range images {
		if len(urls) > model.MaxImagesPerField {
			return in, apperr.Validationf("%s accepts at most %d images", name, model.MaxImagesPerField)
		}
	}
	return in, nil
}

func moderationText(in RecipeInput) string {
	return strings.Join([]string{
		in.Title, in.Region, in.History, in.GeoHistory, in.RecipeBody,
		in.Directions, in.Influences, in.Traditions,
	}, "\n")
}

// jsonSlice 空列表落库为 []，不能是 null
func jsonSlice(v []string) datatypes.JSONSlice[string] {
	if v == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](v)
}

func apply(r *model.Recipe, in RecipeInput) {
	r.Country = in.Country
	r.Region = in.Region
	r.Title = in.Title
	r.History = in.History
	r.GeoHistory = in.GeoHistory
	r.RecipeBody = in.RecipeBody
	r.Directions = in.Directions
	r.Influences = in.Influences
	r.Traditions = in.Traditions
	r.PhotoURLs = jsonSlice(in.PhotoURLs)
	r.RecipeImageURLs = jsonSlice(in.RecipeImageURLs)
	r.DishImageURLs = jsonSlice(in.DishImageURLs)
}

// CreateRecipe 新菜谱默认未发布，需管理员审核
func (s *recipeService) CreateRecipe(ctx context.Context, authorID string, in RecipeInput) (*model.Recipe, error) {
	if authorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	if s.moderator.Check(ctx, moderationText(in)).Flagged {
		return nil, errContentRejected
	}

	recipe := &model.Recipe{UserID: authorID}
	apply(recipe, in)
	if err := s.repo.Create(ctx, recipe); err != nil {
		return nil, apperr.Internal(err)
	}
	return recipe, nil
}

func (s *recipeService) getRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("recipe")
	}
	recipe, err := s.repo.GetByID(ctx, id)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("recipe")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return recipe, nil
}

// loadVisible 未发布的菜谱只有作者和管理员可见，其他人视为不存在
func (s *recipeService) loadVisible(ctx context.Context, viewerID, id string) (*model.Recipe, error) {
	recipe, err := s.getRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.Published {
		return recipe, nil
	}
	// 未发布的菜谱对无权查看者表现为不存在
	err = security.AuthorizeOwnerOrRole(ctx, s.roles, viewerID, recipe, security.RoleAdmin)
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated, apperr.KindForbidden:
		return nil, apperr.NotFound("recipe")
	}
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, actorID, recipeID string, in RecipeInput) (*model.Recipe, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := security.Authorize(actorID, recipe); err != nil {
		return nil, err
	}
	in, err = s.normalize(in)
	if err != nil {
		return nil, err
	}
	if s.moderator.Check(ctx, moderationText(in)).Flagged {
		return nil, errContentRejected
	}

	apply(recipe, in)
	recipe.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, recipe); err != nil {
		return nil, apperr.Internal(err)
	}
	return recipe, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, viewerID, recipeID string) (*model.RecipeView, error) {
	recipe, err := s.loadVisible(ctx, viewerID, recipeID)
	if err != nil {
		return nil, err
	}
	return &model.RecipeView{
		Recipe:         recipe,
		HistoryHTML:    s.text.Render(recipe.History),
		GeoHistoryHTML: s.text.Render(recipe.GeoHistory),
		RecipeBodyHTML: s.text.Render(recipe.RecipeBody),
		DirectionsHTML: s.text.Render(recipe.Directions),
		InfluencesHTML: s.text.Render(recipe.Influences),
		TraditionsHTML: s.text.Render(recipe.Traditions),
	}, nil
}

func (s *recipeService) ListRecipes(ctx context.Context, country string, page, limit int) ([]model.Recipe, int64, error) {
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()

	recipes, total, err := s.repo.ListPublished(ctx, strings.TrimSpace(country), offset, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return recipes, total, nil
}

func (s *recipeService) SearchRecipes(ctx context.Context, query string, page, limit int) ([]model.RecipeSummary, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, apperr.Validation("search query is required")
	}
	if utf8.RuneCountInString(query) > 200 {
		return nil, 0, apperr.Validation("search query must be at most 200 characters")
	}
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()

	results, total, err := s.search.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return results, total, nil
}

func (s *recipeService) SetPublished(ctx context.Context, actorID, recipeID string, published bool) error {
	if err := security.RequireRole(ctx, s.roles, actorID, security.RoleAdmin); err != nil {
		return err
	}
	if _, err := uuid.Parse(recipeID); err != nil {
		return apperr.NotFound("recipe")
	}
	found, err := s.repo.SetPublished(ctx, recipeID, published)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("recipe")
	}
	return nil
}

// --- Translation ---

// TranslateRecipe 已有且未过期的译文直接返回，否则重新翻译并覆盖
func (s *recipeService) TranslateRecipe(ctx context.Context, viewerID, recipeID, language string) (*model.RecipeTranslation, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if !SupportedLanguages[language] {
		return nil, apperr.Validationf("unsupported language: %s", language)
	}
	recipe, err := s.loadVisible(ctx, viewerID, recipeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetTranslation(ctx, recipe.ID, language)
	switch {
	case err == nil && !existing.Stale(recipe):
		metrics.RecordTranslation("stored")
		return existing, nil
	case err != nil && !database.IsNotFound(err):
		return nil, apperr.Internal(err)
	}

	if s.translator == nil {
		return nil, apperr.Internal(translate.ErrNotConfigured)
	}

	tr := &model.RecipeTranslation{RecipeID: recipe.ID, Language: language}
	fields := []struct {
		src string
		dst *string
	}{
		{recipe.Title, &tr.Title},
		{recipe.History, &tr.History},
		{recipe.RecipeBody, &tr.RecipeBody},
		{recipe.Directions, &tr.Directions},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.src) == "" {
			continue
		}
		out, err := s.translator.Translate(ctx, f.src, language)
		if err != nil {
			logger.Log.Error("recipe translation failed",
				zap.String("recipe", recipe.ID), zap.String("lang", language), zap.Error(err))
			return nil, apperr.Internal(err)
		}
		*f.dst = out
	}

	tr.UpdatedAt = time.Now()
	if err := s.repo.UpsertTranslation(ctx, tr); err != nil {
		return nil, apperr.Internal(err)
	}
	metrics.RecordTranslation("translated")
	return tr, nil
}

// --- Comment ---

func validateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return apperr.Validationf("content must be at most %d characters", model.MaxCommentLength)
	}
	return nil
}

func (s *recipeService) CreateComment(ctx context.Context, in CreateCommentInput) (*model.RecipeComment, error) {
	if in.AuthorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if err := validateComment(in.Content); err != nil {
		return nil, err
	}
	recipe, err := s.loadVisible(ctx, in.AuthorID, in.RecipeID)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if in.ParentID != nil && *in.ParentID != "" {
		parent, err := s.getComment(ctx, *in.ParentID, "parent comment")
		if err != nil {
			return nil, err
		}
		if parent.RecipeID != recipe.ID {
			return nil, apperr.Validation("parent comment belongs to a different recipe")
		}
		parentID = &parent.ID
	}

	if s.moderator.Check(ctx, in.Content).Flagged {
		return nil, errContentRejected
	}

	comment := &model.RecipeComment{
		RecipeID:   recipe.ID,
		ParentID:   parentID,
		UserID:     in.AuthorID,
		AuthorName: s.authorName(ctx, in.AuthorID),
		Content:    in.Content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Internal(err)
	}
	return comment, nil
}

func (s *recipeService) authorName(ctx context.Context, userID string) string {
	if s.profiles == nil {
		return model.AnonymousAuthor
	}
	name, err := s.profiles.DisplayName(ctx, userID)
	if err != nil {
		logger.Log.Warn("display name lookup failed", zap.String("user", userID), zap.Error(err))
		return model.AnonymousAuthor
	}
	if name = strings.TrimSpace(name); name == "" {
		return model.AnonymousAuthor
	}
	return name
}

func (s *recipeService) getComment(ctx context.Context, id, what string) (*model.RecipeComment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound(what)
	}
	comment, err := s.repo.GetComment(ctx, id)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound(what)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return comment, nil
}

func (s *recipeService) loadOwnedComment(ctx context.Context, actorID, commentID string) (*model.RecipeComment, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	comment, err := s.getComment(ctx, commentID, "comment")
	if err != nil {
		return nil, err
	}
	if err := security.Authorize(actorID, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *recipeService) UpdateComment(ctx context.Context, actorID, commentID, content string) (*model.RecipeComment, error) {
	comment, err := s.loadOwnedComment(ctx, actorID, commentID)
	if err != nil {
		return nil, err
	}
	if err := validateComment(content); err != nil {
		return nil, err
	}
	if s.moderator.Check(ctx, content).Flagged {
		return nil, errContentRejected
	}

	comment.Content = content
	comment.UpdatedAt = time.Now()
	if err := s.repo.UpdateCommentContent(ctx, comment); err != nil {
		return nil, apperr.Internal(err)
	}
	return comment, nil
}

func (s *recipeService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	if _, err := s.loadOwnedComment(ctx, actorID, commentID); err != nil {
		return err
	}
	n, err := s.repo.DeleteComment(ctx, commentID)
	if err != nil {
		return apperr.Internal(err)
	}
	if n == 0 {
		return apperr.NotFound("comment")
	}
	return nil
}

func (s *recipeService) ListComments(ctx context.Context, viewerID, recipeID string) ([]model.RecipeComment, error) {
	recipe, err := s.loadVisible(ctx, viewerID, recipeID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, recipe.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return comments, nil
}
