package model

import (
	"time"

	"gorm.io/gorm"
)

// InviteCodeStatus 邀请码派生状态
type InviteCodeStatus string

const (
	InviteCodeActive    InviteCodeStatus = "active"
	InviteCodeExpired   InviteCodeStatus = "expired"
	InviteCodeExhausted InviteCodeStatus = "exhausted"
)

// InviteCode 邀请码表 — 对应 invite_codes
// 删除为硬删除，不嵌入软删除字段
type InviteCode struct {
	InviteCodeID string    `gorm:"type:uuid;primaryKey"                                json:"invite_code_id"`
	Code         string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_invite_codes_code" json:"code"`
	CreatorID    string    `gorm:"type:uuid;not null;index"                            json:"creator_id"`
	CreatorName  string    `gorm:"type:varchar(50);not null;default:''"                json:"creator_name"` // 创建时的昵称快照
	MaxUses      int       `gorm:"not null"                                            json:"max_uses"`
	UsedCount    int       `gorm:"not null;default:0"                                  json:"used_count"`
	ExpiresAt    time.Time `gorm:"not null"                                            json:"expires_at"`
	CreatedAt    time.Time `gorm:"not null"                                            json:"created_at"`
}

// TableName 指定表名
func (InviteCode) TableName() string { return "invite_codes" }

// BeforeCreate 生成主键
func (c *InviteCode) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.InviteCodeID)
	return nil
}

// IsExpired expires_at 不晚于 now 即视为过期
func (c *InviteCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// IsExhausted 使用次数已达上限
func (c *InviteCode) IsExhausted() bool {
	return c.UsedCount >= c.MaxUses
}

// IsUsable now < expires_at 且 used_count < max_uses
func (c *InviteCode) IsUsable(now time.Time) bool {
	return !c.IsExpired(now) && !c.IsExhausted()
}

// Status 派生状态；过期优先于用尽
func (c *InviteCode) Status(now time.Time) InviteCodeStatus {
	switch {
	case c.IsExpired(now):
		return InviteCodeExpired
	case c.IsExhausted():
		return InviteCodeExhausted
	default:
		return InviteCodeActive
	}
}

// RemainingUses 剩余可用次数
func (c *InviteCode) RemainingUses() int {
	if c.UsedCount >= c.MaxUses {
		return 0
	}
	return c.MaxUses - c.UsedCount
}
