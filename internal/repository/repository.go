package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User       UserRepository
	InviteCode InviteCodeRepository
	Follow     FollowRepository
	Post       PostRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		InviteCode: NewInviteCodeRepo(db),
		Follow:     NewFollowRepo(db),
		Post:       NewPostRepo(db),
	}
}

// WithTx 返回绑定到事务连接的 Repository 副本
// tx 为 nil 时（单元测试中的 mock 聚合）返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在同一事务中执行 fn，fn 返回错误时整体回滚
// 未绑定数据库连接（mock 聚合）时直接以自身执行 fn
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// translateError 将驱动层唯一约束冲突统一为 pkgerrors.ErrDuplicateKey
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateKey
	}
	return err
}
