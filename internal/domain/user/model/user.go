package model

import (
	"time"

	"recipe_community/pkg/model"
)

// 用户状态
const (
	StatusNormal  = 0
	StatusBanned  = 1
	StatusDeleted = 2 // 已注销（软标记，保留内容归属）
)

// 角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户模型
type User struct {
	model.BaseModel
	Mobile      string     `gorm:"uniqueIndex;size:20;not null" json:"-"`
	Nickname    string     `gorm:"size:64" json:"nickname"`
	AvatarURL   string     `gorm:"size:512" json:"avatarUrl"`
	Role        string     `gorm:"size:16;not null;default:user" json:"role"`
	Status      int        `gorm:"not null;default:0" json:"status"`
	BannedUntil *time.Time `json:"bannedUntil,omitempty"`
}

// Profile 对外公开的用户信息
type Profile struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Nickname: u.Nickname, AvatarURL: u.AvatarURL}
}

func (u *User) Active() bool {
	return u.Status != StatusDeleted
}
