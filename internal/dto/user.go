package dto

// ── 用户模块 DTO ──

// UpdateProfileRequest 更新个人资料（仅更新非 nil 字段）
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=50"`
	Bio         *string `json:"bio"          binding:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url"   binding:"omitempty,max=500"`
	// Version 客户端持有的版本号，用于乐观锁；为 0 时使用服务端最新版本
	Version int `json:"version" binding:"omitempty,min=1"`
}

// VTuberSearchRequest VTuber 搜索参数
type VTuberSearchRequest struct {
	PaginationRequest
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
	VerifiedOnly bool   `form:"verified_only"`
}

// ── 管理模块 DTO ──

// AdminVTuberListRequest 管理面板 VTuber 列表参数
type AdminVTuberListRequest struct {
	PaginationRequest
	Keyword  string `form:"keyword"  binding:"omitempty,max=50"`
	Verified *bool  `form:"verified"`
}

// AdminVTuberResponse 管理面板列表项
type AdminVTuberResponse struct {
	UserResponse
	Email      string `json:"email"`
	VerifiedAt string `json:"verified_at,omitempty"`
}
