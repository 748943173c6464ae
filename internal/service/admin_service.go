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
)

// ── 管理模块业务错误 ──

var (
	ErrNotAdmin              = errors.New("需要管理员权限")
	ErrVerifyTargetNotVTuber = errors.New("只能为 VTuber 账号设置认证徽章")
)

// AdminService 管理员业务接口
type AdminService interface {
	// IsAdmin is_admin 标记或邮箱在 admin.emails 中；存储失败返回错误
	IsAdmin(ctx context.Context, userID string) (bool, error)
	GrantVerification(ctx context.Context, adminID, targetID string) (*dto.AdminVTuberResponse, error)
	RevokeVerification(ctx context.Context, adminID, targetID string) (*dto.AdminVTuberResponse, error)
	ListVTubers(ctx context.Context, adminID string, req *dto.AdminVTuberListRequest) ([]dto.AdminVTuberResponse, int64, error)
}

type adminService struct {
	repo        *repository.Repository
	adminEmails []string
	logger      *zap.Logger
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, adminEmails []string, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, adminEmails: adminEmails, logger: logger}
}

// isAdminUser 邮箱比较忽略大小写
func isAdminUser(u *model.User, adminEmails []string) bool {
	if u.IsAdmin {
		return true
	}
	for _, e := range adminEmails {
		if strings.EqualFold(strings.TrimSpace(e), u.Email) {
			return true
		}
	}
	return false
}

func (s *adminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		s.logger.Error("查询管理员失败", zap.String("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("查询用户失败: %w", err)
	}
	return isAdminUser(user, s.adminEmails), nil
}

func (s *adminService) requireAdmin(ctx context.Context, adminID string) error {
	ok, err := s.IsAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrNotAdmin
		}
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

// ────────────────────── Grant / Revoke ──────────────────────

func (s *adminService) GrantVerification(ctx context.Context, adminID, targetID string) (*dto.AdminVTuberResponse, error) {
	return s.setVerification(ctx, adminID, targetID, true)
}

func (s *adminService) RevokeVerification(ctx context.Context, adminID, targetID string) (*dto.AdminVTuberResponse, error) {
	return s.setVerification(ctx, adminID, targetID, false)
}

func (s *adminService) setVerification(ctx context.Context, adminID, targetID string, verified bool) (*dto.AdminVTuberResponse, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.repo.User.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询目标用户失败", zap.String("target_id", targetID), zap.Error(err))
		return nil, err
	}
	if !target.IsVTuber() {
		return nil, ErrVerifyTargetNotVTuber
	}

	// 状态未变化时保持原 verified_at
	if target.IsVerified == verified {
		return toAdminVTuberResponse(target), nil
	}

	if verified {
		now := time.Now()
		target.VerifiedAt = &now
	} else {
		target.VerifiedAt = nil
	}
	target.IsVerified = verified

	if err := s.repo.User.SetVerified(ctx, targetID, verified, target.VerifiedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新认证状态失败", zap.String("target_id", targetID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("认证徽章已更新",
		zap.String("admin_id", adminID),
		zap.String("target_id", targetID),
		zap.Bool("verified", verified),
	)
	return toAdminVTuberResponse(target), nil
}

// ────────────────────── ListVTubers ──────────────────────

func (s *adminService) ListVTubers(ctx context.Context, adminID string, req *dto.AdminVTuberListRequest) ([]dto.AdminVTuberResponse, int64, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}

	filters := &repository.VTuberListFilters{
		Keyword:  strings.TrimSpace(req.Keyword),
		Verified: req.Verified,
	}
	users, total, err := s.repo.User.ListVTubers(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出 VTuber 失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AdminVTuberResponse, 0, len(users))
	for i := range users {
		result = append(result, *toAdminVTuberResponse(&users[i]))
	}
	return result, total, nil
}

func toAdminVTuberResponse(u *model.User) *dto.AdminVTuberResponse {
	resp := &dto.AdminVTuberResponse{
		UserResponse: *toUserResponse(u),
		Email:        u.Email,
	}
	if u.VerifiedAt != nil {
		resp.VerifiedAt = formatTime(*u.VerifiedAt)
	}
	return resp
}
