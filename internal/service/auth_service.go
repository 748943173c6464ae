package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/jwt"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/metrics"
)

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailExists         = errors.New("邮箱已被注册")
	ErrUsernameExists      = errors.New("用户名已被使用")
	ErrAccountExists       = errors.New("邮箱或用户名已被注册")
	ErrWeakPassword        = errors.New("密码需为 8-64 位，且同时包含字母和数字")
	ErrInvalidUserType     = errors.New("用户类型无效")
	ErrInviteCodeRequired  = errors.New("粉丝账号注册需要邀请码")
	ErrRefreshTokenInvalid = errors.New("Refresh Token 无效或已过期")
)

// TokenBlacklist Token 黑名单存储
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	// Register vtuber 直接注册；listener 在同一事务中兑换邀请码并创建账号
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 将 Access Token 的 jti 加入黑名单直至其过期
	Logout(ctx context.Context, jti string, exp time.Time) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetailResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	inviteSvc InviteCodeService
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist // nil 时黑名单功能降级
	metrics   *metrics.AuthMetrics
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	inviteSvc InviteCodeService,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	m *metrics.AuthMetrics,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		inviteSvc: inviteSvc,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		metrics:   m,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	displayName := strings.TrimSpace(req.DisplayName)

	if req.UserType != model.UserTypeVTuber && req.UserType != model.UserTypeListener {
		return nil, ErrInvalidUserType
	}
	if !isStrongPassword(req.Password) {
		return nil, ErrWeakPassword
	}
	if req.UserType == model.UserTypeListener && NormalizeCode(req.InviteCode) == "" {
		return nil, ErrInviteCodeRequired
	}

	// 检查邮箱唯一性
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	// 检查用户名唯一性
	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户名失败", zap.Error(err))
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		DisplayName:  displayName,
		UserType:     req.UserType,
		PasswordHash: string(hash),
		Version:      1,
	}

	// 兑换与建号在同一事务：任何一步失败，另一步一并回滚
	var redeemErr error
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if user.UserType == model.UserTypeListener {
			invite, err := s.inviteSvc.Redeem(ctx, txRepo, req.InviteCode)
			if err != nil {
				redeemErr = err
				return err
			}
			user.InviteCodeID = &invite.InviteCodeID
		}
		if err := txRepo.User.Create(ctx, user); err != nil {
			if errors.Is(err, pkgerrors.ErrDuplicateKey) {
				return ErrAccountExists
			}
			return fmt.Errorf("创建用户失败: %w", err)
		}
		return nil
	})
	// 兑换结果在事务结束后记录；兑换成功但建号失败时使用次数已回滚，不计入
	if user.UserType == model.UserTypeListener {
		switch {
		case err == nil:
			s.inviteSvc.RecordRedemption(nil)
		case redeemErr != nil:
			s.inviteSvc.RecordRedemption(redeemErr)
		}
	}
	if err != nil {
		s.metrics.ObserveSignup(user.UserType, signupLabel(err))
		if isBusinessError(err) {
			return nil, err
		}
		s.logger.Error("注册失败", zap.String("user_type", user.UserType), zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveSignup(user.UserType, metrics.ResultOK)
	s.logger.Info("用户注册成功",
		zap.String("user_id", user.UserID),
		zap.String("user_type", user.UserType),
	)

	return s.issueTokens(user)
}

func signupLabel(err error) string {
	if errors.Is(err, ErrAccountExists) {
		return "duplicate"
	}
	return redemptionLabel(err)
}

// isBusinessError 可预期的业务拒绝，不记录 Error 日志
func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrInviteCodeInvalid, ErrInviteCodeExpired, ErrInviteCodeExhausted,
		ErrAccountExists, ErrEmailExists, ErrUsernameExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isStrongPassword 8-64 位且至少包含一个字母和一个数字
func isStrongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 64 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range pwd {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(user)
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查 Token 黑名单失败，按未吊销处理", zap.Error(err))
		} else if revoked {
			return nil, ErrRefreshTokenInvalid
		}
	}

	// 重新读取用户，保证 user_type / is_admin 为最新值
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	// 轮换：旧 Refresh Token 作废
	if s.blacklist != nil && claims.ExpiresAt != nil {
		if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Warn("旧 Refresh Token 加入黑名单失败", zap.Error(err))
		}
	}

	return resp, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, exp time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(exp)); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetCurrentUser ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserDetailResponse(user, isAdminUser(user, s.cfg.Admin.Emails)), nil
}

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	isAdmin := isAdminUser(user, s.cfg.Admin.Emails)

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.UserType, isAdmin)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.UserType, isAdmin)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *toUserDetailResponse(user, isAdmin),
	}, nil
}
