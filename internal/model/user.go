package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户类型
const (
	UserTypeVTuber   = "vtuber"
	UserTypeListener = "listener"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string     `gorm:"type:uuid;primaryKey"                  json:"user_id"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Username     string     `gorm:"type:varchar(30);not null;uniqueIndex"  json:"username"`
	DisplayName  string     `gorm:"type:varchar(50);not null"              json:"display_name"`
	UserType     string     `gorm:"type:varchar(20);not null;index"        json:"user_type"`
	PasswordHash string     `gorm:"type:varchar(255);not null"             json:"-"`
	Bio          string     `gorm:"type:text;not null;default:''"          json:"bio"`
	AvatarURL    string     `gorm:"type:varchar(500);not null;default:''"  json:"avatar_url"`
	IsVerified   bool       `gorm:"not null;default:false"                 json:"is_verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	IsAdmin      bool       `gorm:"not null;default:false"                 json:"is_admin"`
	InviteCodeID *string    `gorm:"type:uuid"                              json:"invite_code_id,omitempty"` // listener 注册时使用的邀请码
	Version      int        `gorm:"not null;default:1"                     json:"version"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.UserID)
	return nil
}

// IsVTuber 是否为 VTuber 账号
func (u *User) IsVTuber() bool { return u.UserType == UserTypeVTuber }

// IsVerifiedVTuber 是否为认证 VTuber（唯一可以创建邀请码的身份）
func (u *User) IsVerifiedVTuber() bool { return u.IsVTuber() && u.IsVerified }
