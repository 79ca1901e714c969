package repository

import (
	"context"

	"recipe_community/internal/domain/forum/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ForumRepository interface {
	CreateThread(ctx context.Context, thread *model.Thread) error
	GetThread(ctx context.Context, id string) (*model.Thread, error)
	IncrementViews(ctx context.Context, id string) (*model.Thread, error)
	ListThreads(ctx context.Context, filter model.ThreadFilter, offset, limit int) ([]model.Thread, int64, error)

	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	UpdatePostContent(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) (int64, error)
	ListPosts(ctx context.Context, threadID string) ([]model.Post, error)
}

type forumRepository struct {
	db *gorm.DB
}

func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

// --- Thread ---

func (r *forumRepository) CreateThread(ctx context.Context, thread *model.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

func (r *forumRepository) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	var thread model.Thread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

// IncrementViews 原子自增浏览数并返回最新记录，不存在时返回 gorm.ErrRecordNotFound
func (r *forumRepository) IncrementViews(ctx context.Context, id string) (*model.Thread, error) {
	var thread model.Thread
	res := r.db.WithContext(ctx).Model(&thread).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &thread, nil
}

func (r *forumRepository) ListThreads(ctx context.Context, filter model.ThreadFilter, offset, limit int) ([]model.Thread, int64, error) {
	var threads []model.Thread
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Thread{})
	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.Scope != "" {
		query = query.Where("scope = ?", filter.Scope)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&threads).Error; err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

// --- Post ---

func (r *forumRepository) CreatePost(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *forumRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePostContent 只更新 content 与 updated_at
func (r *forumRepository) UpdatePostContent(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Model(post).
		Select("content", "updated_at").
		Updates(map[string]interface{}{"content": post.Content, "updated_at": post.UpdatedAt}).Error
}

// DeletePost 后代由外键级联删除
func (r *forumRepository) DeletePost(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	return res.RowsAffected, res.Error
}

// ListPosts 按时间正序
func (r *forumRepository) ListPosts(ctx context.Context, threadID string) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at asc, id asc").
		Find(&posts).Error
	return posts, err
}
