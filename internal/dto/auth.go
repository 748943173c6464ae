package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
// listener 必须携带 invite_code，vtuber 忽略该字段
type RegisterRequest struct {
	Email       string `json:"email"        binding:"required,email,max=255"`
	Username    string `json:"username"     binding:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=50"`
	Password    string `json:"password"     binding:"required,min=8,max=64"`
	UserType    string `json:"user_type"    binding:"required,oneof=vtuber listener"`
	InviteCode  string `json:"invite_code"  binding:"omitempty,max=16"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"` // 非 Cookie 模式时使用
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token,omitempty"` // Cookie 模式下可不返回
	ExpiresIn    int                `json:"expires_in"`              // Access Token 有效期（秒）
	User         UserDetailResponse `json:"user"`
}
