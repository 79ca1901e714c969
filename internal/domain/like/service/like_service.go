package service

import (
	"context"

	"recipe_community/internal/domain/like/model"
	"recipe_community/internal/domain/like/repository"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/metrics"

	"github.com/google/uuid"
)

type LikeService interface {
	ToggleLike(ctx context.Context, userID, likeableID, likeableType string) (bool, error)
	Summary(ctx context.Context, viewerID, likeableID, likeableType string) (*model.Summary, error)
}

type likeService struct {
	repo repository.LikeRepository
}

func NewLikeService(repo repository.LikeRepository) LikeService {
	return &likeService{repo: repo}
}

func validateTarget(likeableID, likeableType string) error {
	if likeableID == "" || likeableType == "" {
		return apperr.Validation("likeableId and likeableType are required")
	}
	if !model.ValidType(likeableType) {
		return apperr.Validation("likeableType must be one of thread, post, comment")
	}
	if _, err := uuid.Parse(likeableID); err != nil {
		return apperr.Validation("likeableId must be a valid id")
	}
	return nil
}

// ToggleLike 返回操作后的状态，true 为已点赞
func (s *likeService) ToggleLike(ctx context.Context, userID, likeableID, likeableType string) (bool, error) {
	if userID == "" {
		return false, apperr.Unauthenticated("authentication required")
	}
	if err := validateTarget(likeableID, likeableType); err != nil {
		return false, err
	}

	liked, err := s.repo.Toggle(ctx, userID, likeableID, likeableType)
	if err != nil {
		return false, apperr.Internal(err)
	}
	metrics.RecordLikeToggle(liked)
	return liked, nil
}

// Summary 未登录时 Liked 恒为 false
func (s *likeService) Summary(ctx context.Context, viewerID, likeableID, likeableType string) (*model.Summary, error) {
	if err := validateTarget(likeableID, likeableType); err != nil {
		return nil, err
	}

	count, err := s.repo.Count(ctx, likeableID, likeableType)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	sum := &model.Summary{LikeableID: likeableID, LikeableType: likeableType, Count: count}
	if viewerID != "" {
		if sum.Liked, err = s.repo.HasLiked(ctx, viewerID, likeableID, likeableType); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	return sum, nil
}
