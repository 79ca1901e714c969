package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"recipe_community/internal/domain/messaging/model"
	"recipe_community/internal/domain/messaging/repository"
	"recipe_community/internal/pkg/moderation"
	"recipe_community/internal/pkg/realtime"
	"recipe_community/internal/pkg/worker"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/database"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/metrics"
	"recipe_community/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Directory 身份服务
type Directory interface {
	Exists(ctx context.Context, userID string) (bool, error)
	DisplayName(ctx context.Context, userID string) (string, error)
}

// SendMessageInput 发送消息参数
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	AttachmentURL  string
	AttachmentType string
}

type MessagingService interface {
	GetOrCreateConversation(ctx context.Context, actorID, otherID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, actorID string) ([]model.Conversation, error)
	SendMessage(ctx context.Context, in SendMessageInput) (*model.Message, error)
	ListMessages(ctx context.Context, actorID, conversationID string, page, limit int) ([]model.Message, int64, error)
	// Authorize 校验 actor 是会话成员，用于实时通道加入前
	Authorize(ctx context.Context, actorID, conversationID string) (*model.Conversation, error)
}

type messagingService struct {
	repo      repository.MessagingRepository
	moderator moderation.Checker
	publisher realtime.Publisher
	notifier  worker.Notifier
	users     Directory
}

func NewMessagingService(
	repo repository.MessagingRepository,
	moderator moderation.Checker,
	publisher realtime.Publisher,
	notifier worker.Notifier,
	users Directory,
) MessagingService {
	return &messagingService{
		repo:      repo,
		moderator: moderator,
		publisher: publisher,
		notifier:  notifier,
		users:     users,
	}
}

// GetOrCreateConversation 与调用顺序无关，同一对用户总是得到同一个会话
func (s *messagingService) GetOrCreateConversation(ctx context.Context, actorID, otherID string) (*model.Conversation, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if otherID == "" {
		return nil, apperr.Validation("participant is required")
	}
	parsed, err := uuid.Parse(otherID)
	if err != nil {
		return nil, apperr.Validation("participant must be a valid user id")
	}
	// 比较与排序都基于小写规范形式，和 postgres 的 uuid 顺序一致
	otherID = parsed.String()
	if self, err := uuid.Parse(actorID); err == nil {
		actorID = self.String()
	}
	if actorID == otherID {
		return nil, apperr.Validation("cannot start a conversation with yourself")
	}

	if s.users != nil {
		ok, err := s.users.Exists(ctx, otherID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !ok {
			return nil, apperr.NotFound("user")
		}
	}

	user1, user2 := model.NormalizePair(actorID, otherID)
	conv, err := s.repo.GetOrCreateConversation(ctx, user1, user2)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return conv, nil
}

func (s *messagingService) ListConversations(ctx context.Context, actorID string) ([]model.Conversation, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	convs, err := s.repo.ListConversations(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return convs, nil
}

func (s *messagingService) Authorize(ctx context.Context, actorID, conversationID string) (*model.Conversation, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	parsed, err := uuid.Parse(conversationID)
	if err != nil {
		return nil, apperr.NotFound("conversation")
	}
	conv, err := s.repo.GetConversation(ctx, parsed.String())
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("conversation")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !conv.HasParticipant(actorID) {
		return nil, apperr.Forbidden("you are not a participant of this conversation")
	}
	return conv, nil
}

func validAttachmentType(t string) bool {
	switch t {
	case model.AttachmentImage, model.AttachmentVideo, model.AttachmentFile:
		return true
	}
	return false
}

// SendMessage 落库成功后再做实时推送与离线通知，两者失败都不影响结果
func (s *messagingService) SendMessage(ctx context.Context, in SendMessageInput) (*model.Message, error) {
	conv, err := s.Authorize(ctx, in.SenderID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	in.AttachmentURL = strings.TrimSpace(in.AttachmentURL)
	hasContent := strings.TrimSpace(in.Content) != ""
	switch {
	case !hasContent && in.AttachmentURL == "":
		return nil, apperr.Validation("message must have content or an attachment")
	case utf8.RuneCountInString(in.Content) > model.MaxContentLength:
		return nil, apperr.Validationf("content must be at most %d characters", model.MaxContentLength)
	}
	if in.AttachmentURL != "" {
		if in.AttachmentType == "" {
			in.AttachmentType = model.AttachmentFile
		}
		if !validAttachmentType(in.AttachmentType) {
			return nil, apperr.Validation("attachmentType must be one of image, video, file")
		}
	} else {
		in.AttachmentType = ""
	}

	if hasContent && s.moderator.Check(ctx, in.Content).Flagged {
		return nil, apperr.Rejected("content violates community guidelines")
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		AttachmentURL:  in.AttachmentURL,
		AttachmentType: in.AttachmentType,
	}
	if hasContent {
		msg.Content = in.Content
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}
	metrics.RecordMessageSent()

	s.deliver(ctx, conv, msg)
	return msg, nil
}

func (s *messagingService) deliver(ctx context.Context, conv *model.Conversation, msg *model.Message) {
	if s.publisher != nil {
		event := model.Event{Type: "message", Message: msg}
		if err := s.publisher.Publish(ctx, realtime.ConversationRoom(conv.ID), event); err != nil {
			logger.Log.Warn("realtime publish failed",
				zap.String("conversation", conv.ID),
				zap.String("message", msg.ID),
				zap.Error(err),
			)
		}
	}

	if s.notifier == nil {
		return
	}
	title := "New message"
	if s.users != nil {
		if name, err := s.users.DisplayName(ctx, msg.SenderID); err == nil && name != "" {
			title = name
		}
	}
	s.notifier.Notify(worker.Notification{
		AccountID: conv.Peer(msg.SenderID),
		Title:     title,
		Body:      preview(msg),
		Ext:       map[string]string{"conversationId": conv.ID, "messageId": msg.ID},
	})
}

// preview 推送正文，最多 60 个字符
func preview(msg *model.Message) string {
	if msg.Content == "" {
		return "[" + msg.AttachmentType + "]"
	}
	const maxRunes = 60
	if utf8.RuneCountInString(msg.Content) <= maxRunes {
		return msg.Content
	}
	return string([]rune(msg.Content)[:maxRunes]) + "…"
}

func (s *messagingService) ListMessages(ctx context.Context, actorID, conversationID string, page, limit int) ([]model.Message, int64, error) {
	if _, err := s.Authorize(ctx, actorID, conversationID); err != nil {
		return nil, 0, err
	}

	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()
	msgs, total, err := s.repo.ListMessages(ctx, conversationID, offset, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return msgs, total, nil
}
