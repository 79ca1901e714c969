package repository

import (
	"context"

	"recipe_community/internal/domain/recipe/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	SetPublished(ctx context.Context, id string, published bool) (bool, error)
	ListPublished(ctx context.Context, country string, offset, limit int) ([]model.Recipe, int64, error)

	GetTranslation(ctx context.Context, recipeID, language string) (*model.RecipeTranslation, error)
	UpsertTranslation(ctx context.Context, tr *model.RecipeTranslation) error

	CreateComment(ctx context.Context, comment *model.RecipeComment) error
	GetComment(ctx context.Context, id string) (*model.RecipeComment, error)
	UpdateCommentContent(ctx context.Context, comment *model.RecipeComment) error
	DeleteComment(ctx context.Context, id string) (int64, error)
	ListComments(ctx context.Context, recipeID string) ([]model.RecipeComment, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// --- Recipe ---

func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *recipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Update 保存内容字段，不改发布状态和归属
func (r *recipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Model(recipe).
		Select("country", "region", "title", "history", "geo_history", "recipe_body",
			"directions", "influences", "traditions", "photo_urls", "recipe_image_urls",
			"dish_image_urls", "updated_at").
		Updates(recipe).Error
}

// SetPublished 返回记录是否存在
func (r *recipeRepository) SetPublished(ctx context.Context, id string, published bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Update("published", published)
	return res.RowsAffected > 0, res.Error
}

func (r *recipeRepository) ListPublished(ctx context.Context, country string, offset, limit int) ([]model.Recipe, int64, error) {
	var recipes []model.Recipe
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("published = ?", true)
	if country != "" {
		query = query.Where("country = ?", country)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// --- Translation ---

func (r *recipeRepository) GetTranslation(ctx context.Context, recipeID, language string) (*model.RecipeTranslation, error) {
	var tr model.RecipeTranslation
	err := r.db.WithContext(ctx).
		Where("recipe_id = ? AND language = ?", recipeID, language).
		First(&tr).Error
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// UpsertTranslation 同一语言重复翻译时覆盖旧内容
func (r *recipeRepository) UpsertTranslation(ctx context.Context, tr *model.RecipeTranslation) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "language"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "history", "recipe_body", "directions", "updated_at"}),
	}).Create(tr).Error
}

// --- Comment ---

func (r *recipeRepository) CreateComment(ctx context.Context, comment *model.RecipeComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *recipeRepository) GetComment(ctx context.Context, id string) (*model.RecipeComment, error) {
	var comment model.RecipeComment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *recipeRepository) UpdateCommentContent(ctx context.Context, comment *model.RecipeComment) error {
	return r.db.WithContext(ctx).Model(comment).
		Select("content", "updated_at").
		Updates(comment).Error
}

// DeleteComment 回复由外键级联删除
func (r *recipeRepository) DeleteComment(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.RecipeComment{})
	return res.RowsAffected, res.Error
}

func (r *recipeRepository) ListComments(ctx context.Context, recipeID string) ([]model.RecipeComment, error) {
	var comments []model.RecipeComment
	err := r.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}
