package repository

import (
	"context"

	"recipe_community/internal/domain/messaging/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessagingRepository interface {
	GetOrCreateConversation(ctx context.Context, user1, user2 string) (*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)

	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID string, offset, limit int) ([]model.Message, int64, error)
}

type messagingRepository struct {
	db *gorm.DB
}

func NewMessagingRepository(db *gorm.DB) MessagingRepository {
	return &messagingRepository{db: db}
}

// GetOrCreateConversation user1 < user2 由调用方保证
// 插入冲突时（已存在或并发创建）直接读取已有的那一行
func (r *messagingRepository) GetOrCreateConversation(ctx context.Context, user1, user2 string) (*model.Conversation, error) {
	db := r.db.WithContext(ctx)

	conv := &model.Conversation{User1ID: user1, User2ID: user2}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
		DoNothing: true,
	}).Create(conv).Error
	if err != nil {
		return nil, err
	}

	var existing model.Conversation
	if err := db.Where("user1_id = ? AND user2_id = ?", user1, user2).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *messagingRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations 最近活跃的在前
func (r *messagingRepository) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

// CreateMessage 写入消息并在同一事务内刷新会话的 updated_at
func (r *messagingRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Conversation{}).
			Where("id = ?", msg.ConversationID).
			UpdateColumn("updated_at", msg.CreatedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListMessages 按时间正序
func (r *messagingRepository) ListMessages(ctx context.Context, conversationID string, offset, limit int) ([]model.Message, int64, error) {
	var msgs []model.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Message{}).Where("conversation_id = ?", conversationID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at asc, id asc").Offset(offset).Limit(limit).Find(&msgs).Error; err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}
