package dto

// ── 邀请码模块 DTO ──

// CreateInviteCodeRequest 创建邀请码请求
// 字段缺省时使用配置默认值（10 次 / 30 天）
type CreateInviteCodeRequest struct {
	MaxUses   *int `json:"max_uses"`
	DaysValid *int `json:"days_valid"`
}

// InviteCodeResponse 邀请码信息
type InviteCodeResponse struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	CreatorName   string `json:"creator_name"`
	MaxUses       int    `json:"max_uses"`
	UsedCount     int    `json:"used_count"`
	RemainingUses int    `json:"remaining_uses"`
	Status        string `json:"status"` // active | expired | exhausted
	ExpiresAt     string `json:"expires_at"`
	CreatedAt     string `json:"created_at"`
}

// InviteValidateResponse 邀请码实时校验结果
type InviteValidateResponse struct {
	Valid         bool   `json:"valid"`
	Status        string `json:"status"` // usable | not_found | expired | exhausted
	CreatorName   string `json:"creator_name,omitempty"`
	RemainingUses int    `json:"remaining_uses"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}
