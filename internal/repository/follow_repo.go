package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
)

// FollowRepository 关注关系数据访问接口
type FollowRepository interface {
	// Create 新增关注；重复关注返回 pkgerrors.ErrDuplicateKey
	Create(ctx context.Context, follow *model.Follow) error
	Delete(ctx context.Context, followerID, followingID string) error
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	// ListFollowing 关注列表，预加载被关注的 VTuber
	ListFollowing(ctx context.Context, followerID string) ([]model.Follow, error)
	CountFollowers(ctx context.Context, followingID string) (int64, error)
}

type followRepo struct {
	db *gorm.DB
}

// NewFollowRepo 创建 FollowRepository 实例
func NewFollowRepo(db *gorm.DB) FollowRepository {
	return &followRepo{db: db}
}

func (r *followRepo) Create(ctx context.Context, follow *model.Follow) error {
	return translateError(r.db.WithContext(ctx).Create(follow).Error)
}

func (r *followRepo) Delete(ctx context.Context, followerID, followingID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.Follow{}).Error
}

func (r *followRepo) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *followRepo) ListFollowing(ctx context.Context, followerID string) ([]model.Follow, error) {
	follows := make([]model.Follow, 0)
	err := r.db.WithContext(ctx).
		Preload("Following").
		Where("follower_id = ?", followerID).
		Order("created_at DESC").
		Find(&follows).Error
	if err != nil {
		return nil, err
	}
	return follows, nil
}

func (r *followRepo) CountFollowers(ctx context.Context, followingID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("following_id = ?", followingID).
		Count(&count).Error
	return count, err
}
