package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
)

// PostRepository 帖子数据访问接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// ListByUser 某用户（粉丝房间）的帖子，按创建时间倒序
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error)
	// ListByUsers 多个作者的帖子（关注时间线），userIDs 为空时返回空结果
	ListByUsers(ctx context.Context, userIDs []string, offset, limit int) ([]model.Post, int64, error)
	// List 全站时间线，按创建时间倒序
	List(ctx context.Context, offset, limit int) ([]model.Post, int64, error)
	Delete(ctx context.Context, id string) error
	// AddLike 点赞并原子递增 likes_count；已点赞时返回 false
	AddLike(ctx context.Context, postID, userID string) (bool, error)
	// RemoveLike 取消点赞并原子递减 likes_count；未点赞时返回 false
	RemoveLike(ctx context.Context, postID, userID string) (bool, error)
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
	// AddComment 写入评论并原子递增 comments_count
	AddComment(ctx context.Context, comment *model.PostComment) error
	// ListComments 某帖子的评论，按创建时间倒序
	ListComments(ctx context.Context, postID string, offset, limit int) ([]model.PostComment, int64, error)
}

type postRepo struct {
	db *gorm.DB
}

// NewPostRepo 创建 PostRepository 实例
func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&model.Post{}).Where("user_id = ?", userID), offset, limit)
}

func (r *postRepo) ListByUsers(ctx context.Context, userIDs []string, offset, limit int) ([]model.Post, int64, error) {
	if len(userIDs) == 0 {
		return []model.Post{}, 0, nil
	}
	return r.list(r.db.WithContext(ctx).Model(&model.Post{}).Where("user_id IN ?", userIDs), offset, limit)
}

func (r *postRepo) List(ctx context.Context, offset, limit int) ([]model.Post, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&model.Post{}), offset, limit)
}

func (r *postRepo) list(db *gorm.DB, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	db = db.Where("is_approved = ?", true)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.PostComment{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&model.Post{}).Error
	})
}

func (r *postRepo) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// ON CONFLICT DO NOTHING：重复点赞不会中断 PostgreSQL 事务
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.PostLike{PostID: postID, UserID: userID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		added = true
		return tx.Model(&model.Post{}).
			Where("post_id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (r *postRepo) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&model.Post{}).
			Where("post_id = ? AND likes_count > 0", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1)).Error
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *postRepo) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ── 评论 ──

func (r *postRepo) AddComment(ctx context.Context, comment *model.PostComment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		result := tx.Model(&model.Post{}).
			Where("post_id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *postRepo) ListComments(ctx context.Context, postID string, offset, limit int) ([]model.PostComment, int64, error) {
	var comments []model.PostComment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PostComment{}).Where("post_id = ?", postID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}
