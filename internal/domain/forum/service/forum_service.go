package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"recipe_community/internal/domain/forum/model"
	"recipe_community/internal/domain/forum/repository"
	"recipe_community/internal/pkg/moderation"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/database"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/security"
	"recipe_community/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DisplayNameLookup 身份服务提供的昵称查询
type DisplayNameLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// CreateThreadInput 创建讨论串参数
type CreateThreadInput struct {
	Region   string
	Scope    string
	Category string
	Title    string
	Content  string
}

// CreatePostInput 创建回复参数
type CreatePostInput struct {
	ThreadID     string
	ParentPostID *string
	AuthorID     string
	Content      string
}

type ForumService interface {
	CreateThread(ctx context.Context, authorID string, in CreateThreadInput) (*model.Thread, error)
	GetThread(ctx context.Context, id string) (*model.Thread, error)
	ListThreads(ctx context.Context, filter model.ThreadFilter, page, limit int) ([]model.Thread, int64, error)

	CreatePost(ctx context.Context, in CreatePostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, actorID, postID, content string) (*model.Post, error)
	DeletePost(ctx context.Context, actorID, postID string) error
	ListPosts(ctx context.Context, threadID string) ([]model.Post, error)
}

type forumService struct {
	repo      repository.ForumRepository
	moderator moderation.Checker
	profiles  DisplayNameLookup
}

func NewForumService(repo repository.ForumRepository, moderator moderation.Checker, profiles DisplayNameLookup) ForumService {
	return &forumService{repo: repo, moderator: moderator, profiles: profiles}
}

// ErrDepthExceeded 超过最大嵌套层数
var ErrDepthExceeded = apperr.Validationf("Maximum nesting depth (%d) exceeded", model.MaxDepth)

var errContentRejected = apperr.Rejected("content violates community guidelines")

// canonicalID 非法 uuid 一律按不存在处理，合法的统一成小写形式
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// validateContent 长度按字符（rune）计算
func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > model.MaxContentLength {
		return apperr.Validationf("content must be at most %d characters", model.MaxContentLength)
	}
	return nil
}

func (s *forumService) CreateThread(ctx context.Context, authorID string, in CreateThreadInput) (*model.Thread, error) {
	if authorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}

	in.Region = strings.TrimSpace(in.Region)
	in.Category = strings.TrimSpace(in.Category)
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Region == "":
		return nil, apperr.Validation("region is required")
	case in.Scope != model.ScopeCountry && in.Scope != model.ScopeState:
		return nil, apperr.Validation("scope must be country or state")
	case in.Category == "":
		return nil, apperr.Validation("category is required")
	case in.Title == "":
		return nil, apperr.Validation("title is required")
	case utf8.RuneCountInString(in.Title) > model.MaxTitleLength:
		return nil, apperr.Validationf("title must be at most %d characters", model.MaxTitleLength)
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	if s.moderator.Check(ctx, in.Title+"\n"+in.Content).Flagged {
		return nil, errContentRejected
	}

	thread := &model.Thread{
		Region:   in.Region,
		Scope:    in.Scope,
		Category: in.Category,
		Title:    in.Title,
		Content:  in.Content,
		UserID:   authorID,
	}
	if err := s.repo.CreateThread(ctx, thread); err != nil {
		return nil, apperr.Internal(err)
	}
	return thread, nil
}

// GetThread 读取的同时浏览数 +1
func (s *forumService) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, apperr.NotFound("thread")
	}
	thread, err := s.repo.IncrementViews(ctx, id)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("thread")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return thread, nil
}

func (s *forumService) ListThreads(ctx context.Context, filter model.ThreadFilter, page, limit int) ([]model.Thread, int64, error) {
	if filter.Scope != "" && filter.Scope != model.ScopeCountry && filter.Scope != model.ScopeState {
		return nil, 0, apperr.Validation("scope must be country or state")
	}
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()

	threads, total, err := s.repo.ListThreads(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return threads, total, nil
}

// CreatePost 校验顺序：参数 -> 讨论串存在 -> 父回复存在且同串 -> 深度 -> 审核 -> 落库
func (s *forumService) CreatePost(ctx context.Context, in CreatePostInput) (*model.Post, error) {
	if in.AuthorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if in.ThreadID == "" {
		return nil, apperr.Validation("thread is required")
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	threadID, ok := canonicalID(in.ThreadID)
	if !ok {
		return nil, apperr.NotFound("thread")
	}
	in.ThreadID = threadID
	if _, err := s.repo.GetThread(ctx, in.ThreadID); err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("thread")
		}
		return nil, apperr.Internal(err)
	}

	depth := 0
	var parentID *string
	if in.ParentPostID != nil && *in.ParentPostID != "" {
		parentPostID, ok := canonicalID(*in.ParentPostID)
		if !ok {
			return nil, apperr.NotFound("parent post")
		}
		parent, err := s.repo.GetPost(ctx, parentPostID)
		if err != nil {
			if database.IsNotFound(err) {
				return nil, apperr.NotFound("parent post")
			}
			return nil, apperr.Internal(err)
		}
		if parent.ThreadID != in.ThreadID {
			return nil, apperr.Validation("parent post belongs to a different thread")
		}
		depth = parent.Depth + 1
		if depth > model.MaxDepth {
			return nil, ErrDepthExceeded
		}
		parentID = &parent.ID
	}

	if s.moderator.Check(ctx, in.Content).Flagged {
		return nil, errContentRejected
	}

	post := &model.Post{
		ThreadID:     in.ThreadID,
		ParentPostID: parentID,
		UserID:       in.AuthorID,
		AuthorName:   s.authorName(ctx, in.AuthorID),
		Content:      in.Content,
		Depth:        depth,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, apperr.Internal(err)
	}
	return post, nil
}

// authorName 查询失败不阻塞发帖，使用占位名
func (s *forumService) authorName(ctx context.Context, userID string) string {
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

// loadOwnedPost 先判断存在（404），再判断归属（403）
func (s *forumService) loadOwnedPost(ctx context.Context, actorID, postID string) (*model.Post, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	postID, ok := canonicalID(postID)
	if !ok {
		return nil, apperr.NotFound("post")
	}
	post, err := s.repo.GetPost(ctx, postID)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("post")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := security.Authorize(actorID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *forumService) UpdatePost(ctx context.Context, actorID, postID, content string) (*model.Post, error) {
	post, err := s.loadOwnedPost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if s.moderator.Check(ctx, content).Flagged {
		return nil, errContentRejected
	}

	post.Content = content
	post.UpdatedAt = time.Now()
	if err := s.repo.UpdatePostContent(ctx, post); err != nil {
		return nil, apperr.Internal(err)
	}
	return post, nil
}

func (s *forumService) DeletePost(ctx context.Context, actorID, postID string) error {
	post, err := s.loadOwnedPost(ctx, actorID, postID)
	if err != nil {
		return err
	}
	n, err := s.repo.DeletePost(ctx, post.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	// 祖先已被删除，级联带走了本条
	if n == 0 {
		return apperr.NotFound("post")
	}
	return nil
}

func (s *forumService) ListPosts(ctx context.Context, threadID string) ([]model.Post, error) {
	threadID, ok := canonicalID(threadID)
	if !ok {
		return nil, apperr.NotFound("thread")
	}
	if _, err := s.repo.GetThread(ctx, threadID); err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("thread")
		}
		return nil, apperr.Internal(err)
	}
	posts, err := s.repo.ListPosts(ctx, threadID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return posts, nil
}
