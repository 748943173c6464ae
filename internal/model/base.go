package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 通用时间戳字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ensureID 主键为空时生成 UUID
// PostgreSQL 侧有 gen_random_uuid() 默认值，这里保证 SQLite 测试库与批量写入时也有值
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
