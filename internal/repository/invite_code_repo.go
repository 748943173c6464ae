package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
)

// InviteCodeRepository 邀请码数据访问接口
type InviteCodeRepository interface {
	// Create 插入新邀请码；code 与已有记录冲突时返回 pkgerrors.ErrDuplicateKey
	Create(ctx context.Context, code *model.InviteCode) error
	GetByID(ctx context.Context, id string) (*model.InviteCode, error)
	// GetByCode 按 code 精确匹配，只取第一条
	GetByCode(ctx context.Context, code string) (*model.InviteCode, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.InviteCode, error)
	// Redeem 条件原子自增：仅当 used_count < max_uses 且 expires_at > now 时 used_count+1
	// 返回 false 表示条件不满足（已用尽/已过期/已删除），调用方需重新读取判定原因
	Redeem(ctx context.Context, inviteCodeID string, now time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type inviteCodeRepo struct {
	db *gorm.DB
}

// NewInviteCodeRepo 创建 InviteCodeRepository 实例
func NewInviteCodeRepo(db *gorm.DB) InviteCodeRepository {
	return &inviteCodeRepo{db: db}
}

func (r *inviteCodeRepo) Create(ctx context.Context, code *model.InviteCode) error {
	return translateError(r.db.WithContext(ctx).Create(code).Error)
}

func (r *inviteCodeRepo) GetByID(ctx context.Context, id string) (*model.InviteCode, error) {
	var invite model.InviteCode
	err := r.db.WithContext(ctx).
		Where("invite_code_id = ?", id).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteCodeRepo) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	var invite model.InviteCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Order("created_at ASC").
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteCodeRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.InviteCode, error) {
	codes := make([]model.InviteCode, 0)
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *inviteCodeRepo) Redeem(ctx context.Context, inviteCodeID string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.InviteCode{}).
		Where("invite_code_id = ? AND used_count < max_uses AND expires_at > ?", inviteCodeID, now).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *inviteCodeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("invite_code_id = ?", id).
		Delete(&model.InviteCode{}).Error
}
