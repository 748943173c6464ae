package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// AdminHandler 管理模块 HTTP 处理器
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ListVTubers 管理面板 VTuber 列表
// GET /api/v1/admin/vtubers?keyword=&verified=&page=&page_size=
func (h *AdminHandler) ListVTubers(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AdminVTuberListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	list, total, err := h.adminSvc.ListVTubers(c.Request.Context(), adminID, &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GrantVerification 授予认证徽章
// PUT /api/v1/admin/users/:id/verification
func (h *AdminHandler) GrantVerification(c *gin.Context) {
	h.setVerification(c, true)
}

// RevokeVerification 撤销认证徽章
// DELETE /api/v1/admin/users/:id/verification
func (h *AdminHandler) RevokeVerification(c *gin.Context) {
	h.setVerification(c, false)
}

func (h *AdminHandler) setVerification(c *gin.Context, verified bool) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	targetID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var (
		result *dto.AdminVTuberResponse
		err    error
	)
	if verified {
		result, err = h.adminSvc.GrantVerification(c.Request.Context(), adminID, targetID)
	} else {
		result, err = h.adminSvc.RevokeVerification(c.Request.Context(), adminID, targetID)
	}
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		response.Forbidden(c, 16001, "需要管理员权限")
	case errors.Is(err, service.ErrVerifyTargetNotVTuber):
		response.BadRequest(c, 16002, "只能为 VTuber 账号设置认证徽章")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 16003, "用户不存在")
	default:
		response.InternalError(c)
	}
}
