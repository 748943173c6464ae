package dto

// ── 关注模块 DTO ──

// FollowStatusResponse 关注状态
type FollowStatusResponse struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
}

// FollowingResponse 关注列表项
type FollowingResponse struct {
	VTuber     UserBrief `json:"vtuber"`
	FollowedAt string    `json:"followed_at"`
}
