package model

import "time"

// 可点赞的内容类型
const (
	TypeThread  = "thread"
	TypePost    = "post"
	TypeComment = "comment"
)

// ValidType 是否为可点赞的类型
func ValidType(t string) bool {
	switch t {
	case TypeThread, TypePost, TypeComment:
		return true
	}
	return false
}

// Like 点赞关系，(user_id, likeable_id, likeable_type) 唯一（uq_likes_triple）
// 没有更新操作：存在即已点赞
type Like struct {
	ID           string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string    `gorm:"type:uuid;not null" json:"userId"`
	LikeableID   string    `gorm:"type:uuid;not null" json:"likeableId"`
	LikeableType string    `gorm:"size:16;not null" json:"likeableType"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary 展示用的点赞统计
type Summary struct {
	LikeableID   string `json:"likeableId"`
	LikeableType string `json:"likeableType"`
	Count        int64  `json:"count"`
	Liked        bool   `json:"liked"`
}
