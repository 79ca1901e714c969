package model

import "time"

// 附件类型
const (
	AttachmentImage = "image"
	AttachmentVideo = "video"
	AttachmentFile  = "file"

	MaxContentLength = 5000
)

// Conversation 一对用户之间唯一的会话，User1ID 始终是较小的那个
type Conversation struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	User1ID   string    `gorm:"column:user1_id;type:uuid;not null" json:"user1Id"`
	User2ID   string    `gorm:"column:user2_id;type:uuid;not null" json:"user2Id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"` // 最后一条消息的时间
}

// HasParticipant 是否为会话成员
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.User1ID == userID || c.User2ID == userID)
}

// Peer 返回另一方，非成员返回空串
func (c *Conversation) Peer(userID string) string {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	}
	return ""
}

// Message 只追加，不可修改或删除；内容与附件至少有一个
type Message struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ConversationID string    `gorm:"type:uuid;not null;index" json:"conversationId"`
	SenderID       string    `gorm:"type:uuid;not null" json:"senderId"`
	Content        string    `gorm:"type:text;not null;default:''" json:"content"`
	AttachmentURL  string    `gorm:"size:512;not null;default:''" json:"attachmentUrl,omitempty"`
	AttachmentType string    `gorm:"size:16;not null;default:''" json:"attachmentType,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (m *Message) GetOwnerID() string { return m.SenderID }

// Event 推送到实时通道的消息体
type Event struct {
	Type    string   `json:"type"` // message
	Message *Message `json:"message"`
}

// NormalizePair 排序后返回 (user1, user2)
func NormalizePair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
