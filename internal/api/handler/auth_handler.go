package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
	// defaultRefreshMaxAge 未注入配置时的 Cookie 有效期（7 天）
	defaultRefreshMaxAge = 7 * 24 * 3600
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cfg     *config.Config
}

// NewAuthHandler 创建 AuthHandler
// cfg 可为 nil（测试场景），此时 Cookie 使用默认有效期且不加 Secure
func NewAuthHandler(authSvc service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cfg: cfg}
}

// Register 注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.Created(c, result)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// RefreshToken 刷新 Token
// POST /api/v1/auth/refresh
// 优先读取请求体中的 refresh_token，其次读取 Cookie
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := c.Cookie(refreshCookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		response.InvalidParams(c, "缺少 Refresh Token")
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout 用户登出
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := GetTokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}

	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// GetCurrentUser 获取当前用户信息
// GET /api/v1/auth/me, GET /api/v1/users/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ── Cookie ──

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if token == "" {
		return
	}
	maxAge := defaultRefreshMaxAge
	if h.cfg != nil && h.cfg.Auth.RefreshTokenTTL > 0 {
		maxAge = int(h.cfg.Auth.RefreshTokenTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, refreshCookiePath, "", h.secureCookie(), true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.secureCookie(), true)
}

func (h *AuthHandler) secureCookie() bool {
	return h.cfg != nil && strings.HasPrefix(h.cfg.Server.BaseURL, "https://")
}

// handleAuthError 认证与注册错误映射
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11002, "邮箱已被注册")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 11003, "用户名已被使用")
	case errors.Is(err, service.ErrAccountExists):
		response.Conflict(c, 11008, "邮箱或用户名已被注册")
	case errors.Is(err, service.ErrWeakPassword):
		response.BadRequest(c, 11004, "密码需为 8-64 位，且同时包含字母和数字")
	case errors.Is(err, service.ErrInvalidUserType):
		response.BadRequest(c, 11005, "用户类型无效")
	case errors.Is(err, service.ErrInviteCodeRequired):
		response.BadRequest(c, 11006, "粉丝账号注册需要邀请码")
	case errors.Is(err, service.ErrRefreshTokenInvalid):
		h.clearRefreshCookie(c)
		response.Unauthorized(c, 11007, "Refresh Token 无效或已过期")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 13001, "用户不存在")
	default:
		handleInviteRedeemError(c, err)
	}
}
