package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// PostHandler 帖子模块 HTTP 处理器
type PostHandler struct {
	postSvc service.PostService
}

// NewPostHandler 创建 PostHandler
func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{postSvc: postSvc}
}

// Create 发帖
// POST /api/v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	post, err := h.postSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.Created(c, post)
}

// ListTimeline 全站时间线
// GET /api/v1/posts?page=&page_size=
func (h *PostHandler) ListTimeline(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	posts, total, err := h.postSvc.ListTimeline(c.Request.Context(), &page)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OKPage(c, posts, total, page.GetPage(), page.GetPageSize())
}

// ListFanRoom 粉丝房间帖子
// GET /api/v1/vtubers/:id/posts?page=&page_size=
func (h *PostHandler) ListFanRoom(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	vtuberID, ok := PathID(c, "id")
	if !ok {
		return
	}

	posts, total, err := h.postSvc.ListFanRoom(c.Request.Context(), vtuberID, &page)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OKPage(c, posts, total, page.GetPage(), page.GetPageSize())
}

// ListUserPosts 某用户自己发布的帖子（粉丝账号同样适用）
// GET /api/v1/users/:id/posts?page=&page_size=
func (h *PostHandler) ListUserPosts(c *gin.Context) {
	userID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	posts, total, err := h.postSvc.ListUserPosts(c.Request.Context(), userID, &page)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OKPage(c, posts, total, page.GetPage(), page.GetPageSize())
}

// ListFollowingFeed 关注的 VTuber 的帖子
// GET /api/v1/users/me/following/posts?page=&page_size=
func (h *PostHandler) ListFollowingFeed(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	posts, total, err := h.postSvc.ListFollowingFeed(c.Request.Context(), userID, &page)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OKPage(c, posts, total, page.GetPage(), page.GetPageSize())
}

// Like 点赞
// POST /api/v1/posts/:id/like
func (h *PostHandler) Like(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	postID, ok := PathID(c, "id")
	if !ok {
		return
	}

	result, err := h.postSvc.Like(c.Request.Context(), postID, userID)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, result)
}

// Unlike 取消点赞
// DELETE /api/v1/posts/:id/like
func (h *PostHandler) Unlike(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	postID, ok := PathID(c, "id")
	if !ok {
		return
	}

	result, err := h.postSvc.Unlike(c.Request.Context(), postID, userID)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, result)
}

// Comment 发表评论
// POST /api/v1/posts/:id/comments
func (h *PostHandler) Comment(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	postID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	comment, err := h.postSvc.Comment(c.Request.Context(), postID, userID, &req)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.Created(c, comment)
}

// ListComments 帖子评论，按时间倒序
// GET /api/v1/posts/:id/comments?page=&page_size=
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, ok := PathID(c, "id")
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.InvalidParams(c, "参数校验失败")
		return
	}

	comments, total, err := h.postSvc.ListComments(c.Request.Context(), postID, &page)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OKPage(c, comments, total, page.GetPage(), page.GetPageSize())
}

// Delete 删帖（作者或管理员）
// DELETE /api/v1/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	postID, ok := PathID(c, "id")
	if !ok {
		return
	}

	if err := h.postSvc.Delete(c.Request.Context(), postID, userID); err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *PostHandler) handlePostError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostContentEmpty):
		response.BadRequest(c, 15001, "内容不能为空")
	case errors.Is(err, service.ErrPostContentTooLong):
		response.BadRequest(c, 15002, "内容不能超过 1000 字")
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, 15003, "帖子不存在")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 15004, "无权删除该帖子")
	case errors.Is(err, service.ErrFanRoomNotFound):
		response.NotFound(c, 15005, "粉丝房间不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 13001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
