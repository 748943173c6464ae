package model

import (
	"time"

	"gorm.io/gorm"
)

// Post 帖子表 — 对应 posts
type Post struct {
	PostID        string `gorm:"type:uuid;primaryKey"                 json:"post_id"`
	UserID        string `gorm:"type:uuid;not null;index"             json:"user_id"`
	Content       string `gorm:"type:varchar(1000);not null"          json:"content"`
	ImageURL      string `gorm:"type:varchar(500);not null;default:''" json:"image_url"`
	VideoURL      string `gorm:"type:varchar(500);not null;default:''" json:"video_url"`
	IsApproved    bool   `gorm:"not null"                             json:"is_approved"`
	LikesCount    int    `gorm:"not null;default:0"                   json:"likes_count"`
	CommentsCount int    `gorm:"not null;default:0"                   json:"comments_count"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Post) TableName() string { return "posts" }

// BeforeCreate 生成主键
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.PostID)
	return nil
}

// PostLike 点赞表 — 对应 post_likes
type PostLike struct {
	PostID    string    `gorm:"type:uuid;primaryKey"               json:"post_id"`
	UserID    string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (PostLike) TableName() string { return "post_likes" }

// PostComment 评论表 — 对应 post_comments
type PostComment struct {
	CommentID string    `gorm:"type:uuid;primaryKey"               json:"comment_id"`
	PostID    string    `gorm:"type:uuid;not null;index"           json:"post_id"`
	UserID    string    `gorm:"type:uuid;not null"                 json:"user_id"`
	Content   string    `gorm:"type:varchar(1000);not null"        json:"content"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (PostComment) TableName() string { return "post_comments" }

// BeforeCreate 生成主键
func (c *PostComment) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.CommentID)
	return nil
}
