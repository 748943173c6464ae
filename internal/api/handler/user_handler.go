package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetUser 查看用户资料
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateProfile 更新个人资料
// PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	user, err := h.userSvc.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// SearchVTubers 搜索 VTuber
// GET /api/v1/vtubers?keyword=&verified_only=&page=&page_size=
func (h *UserHandler) SearchVTubers(c *gin.Context) {
	var req dto.VTuberSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	users, total, err := h.userSvc.SearchVTubers(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 13001, "用户不存在")
	case errors.Is(err, service.ErrDisplayNameEmpty):
		response.BadRequest(c, 13002, "昵称不能为空")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13003, "资料已被修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
