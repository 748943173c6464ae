package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
)

const maxPostContentLength = 1000

// ── 帖子模块业务错误 ──

var (
	ErrPostContentEmpty   = errors.New("内容不能为空")
	ErrPostContentTooLong = errors.New("内容不能超过 1000 字")
	ErrPostNotFound       = errors.New("帖子不存在")
	ErrFanRoomNotFound    = errors.New("粉丝房间不存在")
)

// PostService 帖子业务接口
type PostService interface {
	Create(ctx context.Context, userID string, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	// ListFanRoom 某 VTuber 粉丝房间的帖子
	ListFanRoom(ctx context.Context, vtuberID string, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error)
	// ListUserPosts 任意用户（含粉丝账号）自己发布的帖子
	ListUserPosts(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error)
	// ListFollowingFeed 当前用户关注的 VTuber 的帖子
	ListFollowingFeed(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error)
	ListTimeline(ctx context.Context, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error)
	Like(ctx context.Context, postID, userID string) (*dto.LikeResponse, error)
	Unlike(ctx context.Context, postID, userID string) (*dto.LikeResponse, error)
	Comment(ctx context.Context, postID, userID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, postID string, page *dto.PaginationRequest) ([]dto.CommentResponse, int64, error)
	// Delete 仅作者或管理员
	Delete(ctx context.Context, postID, requesterID string) error
}

type postService struct {
	repo        *repository.Repository
	adminEmails []string
	logger      *zap.Logger
}

// NewPostService 创建 PostService 实例
func NewPostService(repo *repository.Repository, adminEmails []string, logger *zap.Logger) PostService {
	return &postService{repo: repo, adminEmails: adminEmails, logger: logger}
}

// ────────────────────── Create ──────────────────────

// normalizeContent 帖子与评论共用：去除首尾空白后校验非空与长度（按字符计）
func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrPostContentEmpty
	}
	if utf8.RuneCountInString(content) > maxPostContentLength {
		return "", ErrPostContentTooLong
	}
	return content, nil
}

func (s *postService) Create(ctx context.Context, userID string, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}

	author, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询作者失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	post := &model.Post{
		UserID:     userID,
		Content:    content,
		ImageURL:   strings.TrimSpace(req.ImageURL),
		VideoURL:   strings.TrimSpace(req.VideoURL),
		IsApproved: true,
	}
	if err := s.repo.Post.Create(ctx, post); err != nil {
		s.logger.Error("发帖失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	post.User = author
	return toPostResponse(post), nil
}

// ────────────────────── List ──────────────────────

func (s *postService) ListFanRoom(ctx context.Context, vtuberID string, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error) {
	owner, err := s.repo.User.GetByID(ctx, vtuberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrFanRoomNotFound
		}
		s.logger.Error("查询粉丝房间失败", zap.String("vtuber_id", vtuberID), zap.Error(err))
		return nil, 0, err
	}
	if !owner.IsVTuber() {
		return nil, 0, ErrFanRoomNotFound
	}

	posts, total, err := s.repo.Post.ListByUser(ctx, vtuberID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询粉丝房间帖子失败", zap.String("vtuber_id", vtuberID), zap.Error(err))
		return nil, 0, err
	}
	return toPostResponses(posts), total, nil
}

func (s *postService) ListUserPosts(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error) {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	posts, total, err := s.repo.Post.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户帖子失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return toPostResponses(posts), total, nil
}

func (s *postService) ListFollowingFeed(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error) {
	follows, err := s.repo.Follow.ListFollowing(ctx, userID)
	if err != nil {
		s.logger.Error("查询关注列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	if len(follows) == 0 {
		return []dto.PostResponse{}, 0, nil
	}

	ids := make([]string, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.FollowingID)
	}

	posts, total, err := s.repo.Post.ListByUsers(ctx, ids, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询关注时间线失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return toPostResponses(posts), total, nil
}

func (s *postService) ListTimeline(ctx context.Context, page *dto.PaginationRequest) ([]dto.PostResponse, int64, error) {
	posts, total, err := s.repo.Post.List(ctx, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询时间线失败", zap.Error(err))
		return nil, 0, err
	}
	return toPostResponses(posts), total, nil
}

// ────────────────────── Like / Unlike ──────────────────────

func (s *postService) Like(ctx context.Context, postID, userID string) (*dto.LikeResponse, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Post.AddLike(ctx, postID, userID); err != nil {
		s.logger.Error("点赞失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	return s.likeState(ctx, postID, true)
}

func (s *postService) Unlike(ctx context.Context, postID, userID string) (*dto.LikeResponse, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Post.RemoveLike(ctx, postID, userID); err != nil {
		s.logger.Error("取消点赞失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	return s.likeState(ctx, postID, false)
}

// likeState 重新读取计数，返回操作后的点赞状态
func (s *postService) likeState(ctx context.Context, postID string, liked bool) (*dto.LikeResponse, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &dto.LikeResponse{Liked: liked, LikesCount: post.LikesCount}, nil
}

// ────────────────────── Comment ──────────────────────

func (s *postService) Comment(ctx context.Context, postID, userID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, err
	}

	author, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询评论者失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	comment := &model.PostComment{PostID: postID, UserID: userID, Content: content}
	if err := s.repo.Post.AddComment(ctx, comment); err != nil {
		// 并发删帖：sqlite 表现为计数更新未命中，postgres 表现为外键冲突
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("评论失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	comment.User = author
	return toCommentResponse(comment), nil
}

func (s *postService) ListComments(ctx context.Context, postID string, page *dto.PaginationRequest) ([]dto.CommentResponse, int64, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.repo.Post.ListComments(ctx, postID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询评论失败", zap.String("post_id", postID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, *toCommentResponse(&comments[i]))
	}
	return result, total, nil
}

// ────────────────────── Delete ──────────────────────

func (s *postService) Delete(ctx context.Context, postID, requesterID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}

	if post.UserID != requesterID {
		requester, err := s.repo.User.GetByID(ctx, requesterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoPermission
			}
			s.logger.Error("查询操作者失败", zap.String("user_id", requesterID), zap.Error(err))
			return err
		}
		if !isAdminUser(requester, s.adminEmails) {
			return ErrNoPermission
		}
	}

	if err := s.repo.Post.Delete(ctx, postID); err != nil {
		s.logger.Error("删帖失败", zap.String("post_id", postID), zap.Error(err))
		return err
	}

	s.logger.Info("帖子已删除", zap.String("post_id", postID), zap.String("operator_id", requesterID))
	return nil
}

func (s *postService) getPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.repo.Post.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("查询帖子失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	return post, nil
}

func toPostResponse(p *model.Post) *dto.PostResponse {
	return &dto.PostResponse{
		ID:            p.PostID,
		Author:        toUserBrief(p.User),
		Content:       p.Content,
		ImageURL:      p.ImageURL,
		VideoURL:      p.VideoURL,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

func toPostResponses(posts []model.Post) []dto.PostResponse {
	result := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		result = append(result, *toPostResponse(&posts[i]))
	}
	return result
}

func toCommentResponse(c *model.PostComment) *dto.CommentResponse {
	return &dto.CommentResponse{
		ID:        c.CommentID,
		PostID:    c.PostID,
		Author:    toUserBrief(c.User),
		Content:   c.Content,
		CreatedAt: formatTime(c.CreatedAt),
	}
}
