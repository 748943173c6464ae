package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// InviteCodeHandler 邀请码模块 HTTP 处理器
type InviteCodeHandler struct {
	inviteSvc service.InviteCodeService
}

// NewInviteCodeHandler 创建 InviteCodeHandler
func NewInviteCodeHandler(inviteSvc service.InviteCodeService) *InviteCodeHandler {
	return &InviteCodeHandler{inviteSvc: inviteSvc}
}

// Create 创建邀请码（认证 VTuber）
// POST /api/v1/invite-codes
func (h *InviteCodeHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 请求体可省略，全部使用默认值
	var req dto.CreateInviteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	code, err := h.inviteSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleInviteCodeError(c, err)
		return
	}

	response.Created(c, code)
}

// Validate 实时校验邀请码（注册页输入时调用）
// GET /api/v1/invite-codes/:code/validate
func (h *InviteCodeHandler) Validate(c *gin.Context) {
	result := h.inviteSvc.Validate(c.Request.Context(), c.Param("code"))
	if result.Status == service.ValidationCheckFailed {
		response.ServiceUnavailable(c, 12005, "暂时无法校验邀请码，请稍后再试")
		return
	}

	resp := dto.InviteValidateResponse{
		Valid:  result.Valid(),
		Status: string(result.Status),
	}
	if result.InviteCode != nil {
		resp.CreatorName = result.InviteCode.CreatorName
		resp.RemainingUses = result.InviteCode.RemainingUses()
		resp.ExpiresAt = result.InviteCode.ExpiresAt.Format(time.RFC3339)
	}
	response.OK(c, resp)
}

// ListMine 我创建的邀请码
// GET /api/v1/invite-codes/mine
func (h *InviteCodeHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	codes, err := h.inviteSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, codes)
}

// Export 导出我创建的邀请码
// GET /api/v1/invite-codes/mine/export
func (h *InviteCodeHandler) Export(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.inviteSvc.ExportMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Delete 删除邀请码（仅创建者）
// DELETE /api/v1/invite-codes/:id
func (h *InviteCodeHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	if err := h.inviteSvc.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleInviteCodeError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *InviteCodeHandler) handleInviteCodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInviteCodeParams):
		response.BadRequest(c, 12004, "邀请码参数不合法")
	case errors.Is(err, service.ErrNotVTuber):
		response.Forbidden(c, 12006, "只有 VTuber 可以创建邀请码")
	case errors.Is(err, service.ErrNotVerifiedVTuber):
		response.Forbidden(c, 12007, "只有认证 VTuber 可以创建邀请码")
	case errors.Is(err, service.ErrInviteCodeNotFound):
		response.NotFound(c, 12008, "邀请码不存在")
	case errors.Is(err, service.ErrNotInviteCodeOwner):
		response.Forbidden(c, 12009, "只能删除自己创建的邀请码")
	case errors.Is(err, service.ErrInviteCodeGenerate):
		response.ServiceUnavailable(c, 12010, "邀请码生成失败，请稍后重试")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 13001, "用户不存在")
	default:
		response.InternalError(c)
	}
}

// handleInviteRedeemError 兑换失败映射（注册流程共用）
func handleInviteRedeemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInviteCodeInvalid):
		response.BadRequest(c, 12001, "邀请码无效")
	case errors.Is(err, service.ErrInviteCodeExpired):
		response.BadRequest(c, 12002, "邀请码已过期")
	case errors.Is(err, service.ErrInviteCodeExhausted):
		response.BadRequest(c, 12003, "邀请码已达到使用上限")
	default:
		response.InternalError(c)
	}
}
