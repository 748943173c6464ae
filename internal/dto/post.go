package dto

// ── 帖子模块 DTO ──

// CreatePostRequest 发帖请求
type CreatePostRequest struct {
	Content  string `json:"content"   binding:"required"`
	ImageURL string `json:"image_url" binding:"omitempty,url,max=500"`
	VideoURL string `json:"video_url" binding:"omitempty,url,max=500"`
}

// PostResponse 帖子信息
type PostResponse struct {
	ID            string     `json:"id"`
	Author        *UserBrief `json:"author,omitempty"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"image_url,omitempty"`
	VideoURL      string     `json:"video_url,omitempty"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	CreatedAt     string     `json:"created_at"`
}

// LikeResponse 点赞结果
type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// CreateCommentRequest 评论请求
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CommentResponse 评论信息
type CommentResponse struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id"`
	Author    *UserBrief `json:"author,omitempty"`
	Content   string     `json:"content"`
	CreatedAt string     `json:"created_at"`
}
