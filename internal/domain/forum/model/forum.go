package model

import (
	"time"

	"recipe_community/pkg/model"
)

// 帖子约束
const (
	MaxDepth         = 5
	MaxTitleLength   = 120
	MaxContentLength = 5000
	AnonymousAuthor  = "Anonymous"
	ScopeCountry     = "country"
	ScopeState       = "state"
)

// Thread 讨论串（根节点）
type Thread struct {
	model.BaseModel
	Region    string `gorm:"size:128;not null;index" json:"region"`
	Scope     string `gorm:"size:16;not null" json:"scope"` // country | state
	Category  string `gorm:"size:64;not null;index" json:"category"`
	Title     string `gorm:"size:120;not null" json:"title"`
	Content   string `gorm:"type:text;not null" json:"content"`
	UserID    string `gorm:"type:uuid;not null;index" json:"userId"`
	ViewCount int64  `gorm:"not null;default:0" json:"viewCount"`
}

func (t *Thread) GetOwnerID() string { return t.UserID }

// Post 回复，可以回复讨论串或另一条回复
// 删除时依赖 parent_post_id 的 ON DELETE CASCADE 清理所有后代
type Post struct {
	ID           string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ThreadID     string    `gorm:"type:uuid;not null;index" json:"threadId"`
	ParentPostID *string   `gorm:"type:uuid;index" json:"parentPostId"`
	UserID       string    `gorm:"type:uuid;not null" json:"userId"`
	AuthorName   string    `gorm:"size:64;not null" json:"authorName"` // 创建时的昵称快照
	Content      string    `gorm:"type:text;not null" json:"content"`
	Depth        int       `gorm:"not null;default:0" json:"depth"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (p *Post) GetOwnerID() string { return p.UserID }

// ThreadFilter 列表筛选条件，空值表示不过滤
type ThreadFilter struct {
	Region   string
	Scope    string
	Category string
}

// PostNode 嵌套结构，供客户端直接渲染
type PostNode struct {
	Post
	Replies []*PostNode `json:"replies"`
}
