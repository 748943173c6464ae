package handler

import (
	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	InviteCode *InviteCodeHandler
	User       *UserHandler
	Admin      *AdminHandler
	Follow     *FollowHandler
	Post       *PostHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, cfg),
		InviteCode: NewInviteCodeHandler(svc.InviteCode),
		User:       NewUserHandler(svc.User),
		Admin:      NewAdminHandler(svc.Admin),
		Follow:     NewFollowHandler(svc.Follow),
		Post:       NewPostHandler(svc.Post),
	}
}
