package service

import (
	"go.uber.org/zap"

	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/jwt"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	InviteCode InviteCodeService
	Auth       AuthService
	User       UserService
	Admin      AdminService
	Follow     FollowService
	Post       PostService
}

// Metrics 业务指标集合，字段为 nil 时对应指标不采集
type Metrics struct {
	Invite *metrics.InviteMetrics
	Auth   *metrics.AuthMetrics
}

// NewService 创建 Service 聚合
// blacklist 为 nil 时登出与 Refresh Token 轮换不写黑名单
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	m Metrics,
	logger *zap.Logger,
) *Service {
	invite := NewInviteCodeService(&cfg.Invite, repo, m.Invite, logger)
	return &Service{
		InviteCode: invite,
		Auth:       NewAuthService(cfg, repo, invite, jwtMgr, blacklist, m.Auth, logger),
		User:       NewUserService(repo, cfg.Admin.Emails, logger),
		Admin:      NewAdminService(repo, cfg.Admin.Emails, logger),
		Follow:     NewFollowService(repo, logger),
		Post:       NewPostService(repo, cfg.Admin.Emails, logger),
	}
}
