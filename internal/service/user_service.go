package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrDisplayNameEmpty = errors.New("昵称不能为空")
	ErrNoPermission     = errors.New("无权操作")
)

// UserService 用户业务接口
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	// UpdateProfile 乐观锁更新资料，版本冲突返回 pkgerrors.ErrOptimisticLock
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserDetailResponse, error)
	SearchVTubers(ctx context.Context, req *dto.VTuberSearchRequest) ([]dto.UserResponse, int64, error)
}

type userService struct {
	repo        *repository.Repository
	adminEmails []string
	logger      *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, adminEmails []string, logger *zap.Logger) UserService {
	return &userService{repo: repo, adminEmails: adminEmails, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

// ────────────────────── UpdateProfile ──────────────────────

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}

	// 客户端持有旧版本时直接拒绝，避免覆盖他人修改
	if req.Version != 0 && req.Version != user.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	// 应用更新字段（仅更新非 nil 字段）
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, ErrDisplayNameEmpty
		}
		user.DisplayName = name
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}

	if err := s.repo.User.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新资料失败", zap.String("id", userID), zap.Error(err))
		return nil, fmt.Errorf("更新资料失败: %w", err)
	}

	return toUserDetailResponse(user, isAdminUser(user, s.adminEmails)), nil
}

// ────────────────────── SearchVTubers ──────────────────────

func (s *userService) SearchVTubers(ctx context.Context, req *dto.VTuberSearchRequest) ([]dto.UserResponse, int64, error) {
	filters := &repository.VTuberListFilters{
		Keyword: strings.TrimSpace(req.Keyword),
	}
	if req.VerifiedOnly {
		verified := true
		filters.Verified = &verified
	}

	users, total, err := s.repo.User.ListVTubers(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("搜索 VTuber 失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ── 转换 ──

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:          u.UserID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		UserType:    u.UserType,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		IsVerified:  u.IsVerified,
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

func toUserDetailResponse(u *model.User, isAdmin bool) *dto.UserDetailResponse {
	resp := &dto.UserDetailResponse{
		UserResponse: *toUserResponse(u),
		Email:        u.Email,
		IsAdmin:      isAdmin,
		Version:      u.Version,
	}
	if u.VerifiedAt != nil {
		resp.VerifiedAt = formatTime(*u.VerifiedAt)
	}
	return resp
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{
		ID:          u.UserID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		IsVerified:  u.IsVerified,
	}
}
