package model

import (
	"time"

	"recipe_community/pkg/model"

	"gorm.io/datatypes"
)

// 字段约束
const (
	MaxTitleLength    = 200
	MaxTextLength     = 20000
	MaxCommentLength  = 5000
	MaxImagesPerField = 20
	AnonymousAuthor   = "Anonymous"
)

// Recipe 用户提交的家传菜谱，长文本字段为 Markdown 原文
// search_vector 由数据库生成列维护，不映射到结构体
type Recipe struct {
	model.BaseModel
	UserID          string                      `gorm:"type:uuid;not null" json:"userId"`
	Country         string                      `gorm:"size:64;not null" json:"country"`
	Region          string                      `gorm:"size:128;not null;default:''" json:"region"`
	Title           string                      `gorm:"size:200;not null" json:"title"`
	History         string                      `gorm:"type:text" json:"history"`
	GeoHistory      string                      `gorm:"type:text" json:"geoHistory"`
	RecipeBody      string                      `gorm:"type:text" json:"recipeBody"`
	Directions      string                      `gorm:"type:text" json:"directions"`
	Influences      string                      `gorm:"type:text" json:"influences"`
	Traditions      string                      `gorm:"type:text" json:"traditions"`
	PhotoURLs       datatypes.JSONSlice[string] `gorm:"column:photo_urls;type:jsonb" json:"photoUrls"`
	RecipeImageURLs datatypes.JSONSlice[string] `gorm:"column:recipe_image_urls;type:jsonb" json:"recipeImageUrls"`
	DishImageURLs   datatypes.JSONSlice[string] `gorm:"column:dish_image_urls;type:jsonb" json:"dishImageUrls"`
	Published       bool                        `gorm:"not null;default:false" json:"published"`
}

func (r *Recipe) GetOwnerID() string { return r.UserID }

// RecipeView 详情页：附带渲染并清洗后的 HTML
type RecipeView struct {
	*Recipe
	HistoryHTML    string `json:"historyHtml"`
	GeoHistoryHTML string `json:"geoHistoryHtml"`
	RecipeBodyHTML string `json:"recipeBodyHtml"`
	DirectionsHTML string `json:"directionsHtml"`
	InfluencesHTML string `json:"influencesHtml"`
	TraditionsHTML string `json:"traditionsHtml"`
}

// RecipeSummary 列表与检索结果
type RecipeSummary struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Country   string    `db:"country" json:"country"`
	Region    string    `db:"region" json:"region"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Rank      float64   `db:"rank" json:"rank,omitempty"`
}

// RecipeTranslation (recipe_id, language) 唯一
type RecipeTranslation struct {
	model.BaseModel
	RecipeID   string `gorm:"type:uuid;not null" json:"recipeId"`
	Language   string `gorm:"size:16;not null" json:"language"`
	Title      string `gorm:"size:400;not null" json:"title"`
	History    string `gorm:"type:text" json:"history"`
	RecipeBody string `gorm:"type:text" json:"recipeBody"`
	Directions string `gorm:"type:text" json:"directions"`
}

// Stale 菜谱在翻译之后又被修改过
func (t *RecipeTranslation) Stale(r *Recipe) bool {
	return r.UpdatedAt.After(t.UpdatedAt)
}

// RecipeComment 菜谱评论，可回复，不限层级
// 删除时依赖 parent_id 的 ON DELETE CASCADE 清理回复
type RecipeComment struct {
	model.BaseModel
	RecipeID   string  `gorm:"type:uuid;not null" json:"recipeId"`
	ParentID   *string `gorm:"type:uuid" json:"parentId"`
	UserID     string  `gorm:"type:uuid;not null" json:"userId"`
	AuthorName string  `gorm:"size:64;not null" json:"authorName"`
	Content    string  `gorm:"type:text;not null" json:"content"`
}

func (c *RecipeComment) GetOwnerID() string { return c.UserID }
