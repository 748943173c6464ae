package model

import (
	"time"

	"gorm.io/gorm"
)

// Follow 关注关系表 — 对应 follows
type Follow struct {
	FollowID    string    `gorm:"type:uuid;primaryKey"                                json:"follow_id"`
	FollowerID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair"      json:"follower_id"`
	FollowingID string    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair;index" json:"following_id"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                  json:"created_at"`

	// 关联
	Following *User `gorm:"foreignKey:FollowingID;references:UserID" json:"following,omitempty"`
}

// TableName 指定表名
func (Follow) TableName() string { return "follows" }

// BeforeCreate 生成主键
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	ensureID(&f.FollowID)
	return nil
}
