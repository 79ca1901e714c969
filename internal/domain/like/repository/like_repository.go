package repository

import (
	"context"

	"recipe_community/internal/domain/like/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository interface {
	Toggle(ctx context.Context, userID, likeableID, likeableType string) (bool, error)
	Count(ctx context.Context, likeableID, likeableType string) (int64, error)
	HasLiked(ctx context.Context, userID, likeableID, likeableType string) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle 在一个事务内完成：先删除，删到了即取消点赞；否则插入
// 插入冲突（并发请求已插入同一条）时按当前存储状态返回已点赞
func (r *likeRepository) Toggle(ctx context.Context, userID, likeableID, likeableType string) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND likeable_id = ? AND likeable_type = ?", userID, likeableID, likeableType).
			Delete(&model.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		like := &model.Like{UserID: userID, LikeableID: likeableID, LikeableType: likeableType}
		res = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "likeable_id"}, {Name: "likeable_type"}},
			DoNothing: true,
		}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		liked = true
		return nil
	})
	return liked, err
}

func (r *likeRepository) Count(ctx context.Context, likeableID, likeableType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("likeable_id = ? AND likeable_type = ?", likeableID, likeableType).
		Count(&count).Error
	return count, err
}

func (r *likeRepository) HasLiked(ctx context.Context, userID, likeableID, likeableType string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND likeable_id = ? AND likeable_type = ?", userID, likeableID, likeableType).
		Count(&count).Error
	return count > 0, err
}
