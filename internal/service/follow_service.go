package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
)

// ── 关注模块业务错误 ──

var (
	ErrCannotFollowSelf      = errors.New("不能关注自己")
	ErrFollowTargetNotVTuber = errors.New("只能关注 VTuber")
)

// FollowService 关注业务接口
type FollowService interface {
	// Follow 重复关注视为成功
	Follow(ctx context.Context, followerID, vtuberID string) error
	Unfollow(ctx context.Context, followerID, vtuberID string) error
	IsFollowing(ctx context.Context, followerID, vtuberID string) (bool, error)
	CountFollowers(ctx context.Context, vtuberID string) (int64, error)
	ListFollowing(ctx context.Context, userID string) ([]dto.FollowingResponse, error)
}

type followService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFollowService 创建 FollowService 实例
func NewFollowService(repo *repository.Repository, logger *zap.Logger) FollowService {
	return &followService{repo: repo, logger: logger}
}

func (s *followService) Follow(ctx context.Context, followerID, vtuberID string) error {
	if followerID == vtuberID {
		return ErrCannotFollowSelf
	}

	target, err := s.repo.User.GetByID(ctx, vtuberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询关注目标失败", zap.String("vtuber_id", vtuberID), zap.Error(err))
		return err
	}
	if !target.IsVTuber() {
		return ErrFollowTargetNotVTuber
	}

	err = s.repo.Follow.Create(ctx, &model.Follow{FollowerID: followerID, FollowingID: vtuberID})
	if err != nil && !errors.Is(err, pkgerrors.ErrDuplicateKey) {
		s.logger.Error("关注失败", zap.String("follower_id", followerID), zap.String("vtuber_id", vtuberID), zap.Error(err))
		return err
	}
	return nil
}

func (s *followService) Unfollow(ctx context.Context, followerID, vtuberID string) error {
	if err := s.repo.Follow.Delete(ctx, followerID, vtuberID); err != nil {
		s.logger.Error("取消关注失败", zap.String("follower_id", followerID), zap.String("vtuber_id", vtuberID), zap.Error(err))
		return err
	}
	return nil
}

func (s *followService) IsFollowing(ctx context.Context, followerID, vtuberID string) (bool, error) {
	ok, err := s.repo.Follow.Exists(ctx, followerID, vtuberID)
	if err != nil {
		s.logger.Error("查询关注状态失败", zap.Error(err))
		return false, err
	}
	return ok, nil
}

func (s *followService) CountFollowers(ctx context.Context, vtuberID string) (int64, error) {
	n, err := s.repo.Follow.CountFollowers(ctx, vtuberID)
	if err != nil {
		s.logger.Error("统计粉丝数失败", zap.String("vtuber_id", vtuberID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *followService) ListFollowing(ctx context.Context, userID string) ([]dto.FollowingResponse, error) {
	follows, err := s.repo.Follow.ListFollowing(ctx, userID)
	if err != nil {
		s.logger.Error("查询关注列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.FollowingResponse, 0, len(follows))
	for _, f := range follows {
		// 被关注账号已删除时跳过
		if f.Following == nil {
			continue
		}
		result = append(result, dto.FollowingResponse{
			VTuber:     *toUserBrief(f.Following),
			FollowedAt: formatTime(f.CreatedAt),
		})
	}
	return result, nil
}
