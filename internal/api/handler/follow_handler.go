package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// FollowHandler 关注模块 HTTP 处理器
type FollowHandler struct {
	followSvc service.FollowService
}

// NewFollowHandler 创建 FollowHandler
func NewFollowHandler(followSvc service.FollowService) *FollowHandler {
	return &FollowHandler{followSvc: followSvc}
}

// Follow 关注 VTuber
// POST /api/v1/vtubers/:id/follow
func (h *FollowHandler) Follow(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	vtuberID, ok := PathID(c, "id")
	if !ok {
		return
	}
	if err := h.followSvc.Follow(c.Request.Context(), userID, vtuberID); err != nil {
		h.handleFollowError(c, err)
		return
	}

	h.respondStatus(c, userID, vtuberID)
}

// Unfollow 取消关注
// DELETE /api/v1/vtubers/:id/follow
func (h *FollowHandler) Unfollow(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	vtuberID, ok := PathID(c, "id")
	if !ok {
		return
	}
	if err := h.followSvc.Unfollow(c.Request.Context(), userID, vtuberID); err != nil {
		h.handleFollowError(c, err)
		return
	}

	h.respondStatus(c, userID, vtuberID)
}

// Status 是否已关注及粉丝数
// GET /api/v1/vtubers/:id/follow
func (h *FollowHandler) Status(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	vtuberID, ok := PathID(c, "id")
	if !ok {
		return
	}

	h.respondStatus(c, userID, vtuberID)
}

// ListFollowing 我的关注列表
// GET /api/v1/users/me/following
func (h *FollowHandler) ListFollowing(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.followSvc.ListFollowing(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, list)
}

func (h *FollowHandler) respondStatus(c *gin.Context, userID, vtuberID string) {
	following, err := h.followSvc.IsFollowing(c.Request.Context(), userID, vtuberID)
	if err != nil {
		response.InternalError(c)
		return
	}
	count, err := h.followSvc.CountFollowers(c.Request.Context(), vtuberID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.FollowStatusResponse{Following: following, FollowersCount: count})
}

func (h *FollowHandler) handleFollowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCannotFollowSelf):
		response.BadRequest(c, 14001, "不能关注自己")
	case errors.Is(err, service.ErrFollowTargetNotVTuber):
		response.BadRequest(c, 14002, "只能关注 VTuber")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 14003, "用户不存在")
	default:
		response.InternalError(c)
	}
}
