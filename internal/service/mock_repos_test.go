package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User
	seq       int
	getErr    error // 非 nil 时所有查询返回该错误
	createErr error // 非 nil 时 Create 返回该错误
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.DisplayName = user.DisplayName
	stored.Bio = user.Bio
	stored.AvatarURL = user.AvatarURL
	stored.Version++
	user.Version = stored.Version
	return nil
}

func (m *mockUserRepo) SetVerified(_ context.Context, id string, verified bool, verifiedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsVerified = verified
	u.VerifiedAt = verifiedAt
	u.Version++
	return nil
}

func (m *mockUserRepo) ListVTubers(_ context.Context, filters *repository.VTuberListFilters, offset, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, 0, m.getErr
	}
	var matched []model.User
	for _, u := range m.users {
		if u.UserType != model.UserTypeVTuber {
			continue
		}
		if filters != nil {
			kw := strings.ToLower(filters.Keyword)
			if kw != "" &&
				!strings.Contains(strings.ToLower(u.Username), kw) &&
				!strings.Contains(strings.ToLower(u.DisplayName), kw) {
				continue
			}
			if filters.Verified != nil && u.IsVerified != *filters.Verified {
				continue
			}
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock InviteCodeRepository ──

type mockInviteCodeRepo struct {
	mu        sync.Mutex
	codes     map[string]*model.InviteCode
	seq       int
	getErr    error // 非 nil 时查询返回该错误
	redeemErr error
	createErr error
	inserts   int // Create 被调用的次数（含冲突）
}

func newMockInviteCodeRepo() *mockInviteCodeRepo {
	return &mockInviteCodeRepo{codes: make(map[string]*model.InviteCode)}
}

func (m *mockInviteCodeRepo) Create(_ context.Context, code *model.InviteCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.createErr != nil {
		return m.createErr
	}
	for _, c := range m.codes {
		if c.Code == code.Code {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if code.InviteCodeID == "" {
		m.seq++
		code.InviteCodeID = fmt.Sprintf("invite-%d", m.seq)
	}
	cp := *code
	m.codes[code.InviteCodeID] = &cp
	return nil
}

func (m *mockInviteCodeRepo) GetByID(_ context.Context, id string) (*model.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if c, ok := m.codes[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInviteCodeRepo) GetByCode(_ context.Context, code string) (*model.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, c := range m.codes {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInviteCodeRepo) ListByCreator(_ context.Context, creatorID string) ([]model.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]model.InviteCode, 0)
	for _, c := range m.codes {
		if c.CreatorID == creatorID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// Redeem 与 SQL 条件更新语义一致：在锁内检查并自增
func (m *mockInviteCodeRepo) Redeem(_ context.Context, inviteCodeID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redeemErr != nil {
		return false, m.redeemErr
	}
	c, ok := m.codes[inviteCodeID]
	if !ok || c.UsedCount >= c.MaxUses || !c.ExpiresAt.After(now) {
		return false, nil
	}
	c.UsedCount++
	return true, nil
}

func (m *mockInviteCodeRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, id)
	return nil
}

func (m *mockInviteCodeRepo) get(id string) *model.InviteCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[id]
}

// ── Mock FollowRepository ──

type mockFollowRepo struct {
	follows map[string]*model.Follow // key: follower|following
	users   *mockUserRepo            // 用于 ListFollowing 预加载
}

func newMockFollowRepo(users *mockUserRepo) *mockFollowRepo {
	return &mockFollowRepo{follows: make(map[string]*model.Follow), users: users}
}

func followKey(followerID, followingID string) string {
	return followerID + "|" + followingID
}

func (m *mockFollowRepo) Create(_ context.Context, follow *model.Follow) error {
	key := followKey(follow.FollowerID, follow.FollowingID)
	if _, ok := m.follows[key]; ok {
		return pkgerrors.ErrDuplicateKey
	}
	follow.FollowID = "follow-" + key
	follow.CreatedAt = time.Now()
	m.follows[key] = follow
	return nil
}

func (m *mockFollowRepo) Delete(_ context.Context, followerID, followingID string) error {
	delete(m.follows, followKey(followerID, followingID))
	return nil
}

func (m *mockFollowRepo) Exists(_ context.Context, followerID, followingID string) (bool, error) {
	_, ok := m.follows[followKey(followerID, followingID)]
	return ok, nil
}

func (m *mockFollowRepo) ListFollowing(ctx context.Context, followerID string) ([]model.Follow, error) {
	result := make([]model.Follow, 0)
	for _, f := range m.follows {
		if f.FollowerID != followerID {
			continue
		}
		cp := *f
		if u, err := m.users.GetByID(ctx, f.FollowingID); err == nil {
			cp.Following = u
		}
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockFollowRepo) CountFollowers(_ context.Context, followingID string) (int64, error) {
	var n int64
	for _, f := range m.follows {
		if f.FollowingID == followingID {
			n++
		}
	}
	return n, nil
}

// ── Mock PostRepository ──

type mockPostRepo struct {
	posts    map[string]*model.Post
	likes    map[string]bool // key: post|user
	comments []model.PostComment
	seq      int
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*model.Post), likes: make(map[string]bool)}
}

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	m.seq++
	post.PostID = fmt.Sprintf("post-%d", m.seq)
	post.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Second)
	cp := *post
	m.posts[post.PostID] = &cp
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	if p, ok := m.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPostRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	return m.list(func(p *model.Post) bool { return p.UserID == userID }, offset, limit)
}

func (m *mockPostRepo) ListByUsers(_ context.Context, userIDs []string, offset, limit int) ([]model.Post, int64, error) {
	set := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		set[id] = true
	}
	return m.list(func(p *model.Post) bool { return set[p.UserID] }, offset, limit)
}

func (m *mockPostRepo) List(_ context.Context, offset, limit int) ([]model.Post, int64, error) {
	return m.list(func(*model.Post) bool { return true }, offset, limit)
}

func (m *mockPostRepo) list(match func(*model.Post) bool, offset, limit int) ([]model.Post, int64, error) {
	var matched []model.Post
	for _, p := range m.posts {
		if p.IsApproved && match(p) {
			matched = append(matched, *p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.Post{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockPostRepo) Delete(_ context.Context, id string) error {
	delete(m.posts, id)
	for key := range m.likes {
		if strings.HasPrefix(key, id+"|") {
			delete(m.likes, key)
		}
	}
	kept := m.comments[:0]
	for _, c := range m.comments {
		if c.PostID != id {
			kept = append(kept, c)
		}
	}
	m.comments = kept
	return nil
}

func (m *mockPostRepo) AddLike(_ context.Context, postID, userID string) (bool, error) {
	key := postID + "|" + userID
	if m.likes[key] {
		return false, nil
	}
	m.likes[key] = true
	m.posts[postID].LikesCount++
	return true, nil
}

func (m *mockPostRepo) RemoveLike(_ context.Context, postID, userID string) (bool, error) {
	key := postID + "|" + userID
	if !m.likes[key] {
		return false, nil
	}
	delete(m.likes, key)
	if p := m.posts[postID]; p.LikesCount > 0 {
		p.LikesCount--
	}
	return true, nil
}

func (m *mockPostRepo) HasLiked(_ context.Context, postID, userID string) (bool, error) {
	return m.likes[postID+"|"+userID], nil
}

func (m *mockPostRepo) AddComment(_ context.Context, comment *model.PostComment) error {
	p, ok := m.posts[comment.PostID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.seq++
	comment.CommentID = fmt.Sprintf("comment-%d", m.seq)
	comment.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Second)
	m.comments = append(m.comments, *comment)
	p.CommentsCount++
	return nil
}

func (m *mockPostRepo) ListComments(_ context.Context, postID string, offset, limit int) ([]model.PostComment, int64, error) {
	var matched []model.PostComment
	for _, c := range m.comments {
		if c.PostID == postID {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.PostComment{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{jtis: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		return nil
	}
	m.jtis[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jtis[jti]
	return ok, nil
}

// ── 测试辅助 ──

type mockRepos struct {
	users   *mockUserRepo
	invites *mockInviteCodeRepo
	follows *mockFollowRepo
	posts   *mockPostRepo
}

// newMockRepository 组装未绑定数据库的 Repository 聚合，Transaction 直接执行回调
func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	mocks := &mockRepos{
		users:   users,
		invites: newMockInviteCodeRepo(),
		follows: newMockFollowRepo(users),
		posts:   newMockPostRepo(),
	}
	repo := &repository.Repository{
		User:       mocks.users,
		InviteCode: mocks.invites,
		Follow:     mocks.follows,
		Post:       mocks.posts,
	}
	return repo, mocks
}

func seedTestUser(users *mockUserRepo, id, username, userType string, verified bool) *model.User {
	u := &model.User{
		UserID:      id,
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: "表示名-" + username,
		UserType:    userType,
		IsVerified:  verified,
		Version:     1,
		BaseModel:   model.BaseModel{CreatedAt: time.Now()},
	}
	users.users[id] = u
	return u
}

func seedTestInvite(invites *mockInviteCodeRepo, id, code, creatorID string, maxUses, used int, expiresAt, createdAt time.Time) *model.InviteCode {
	c := &model.InviteCode{
		InviteCodeID: id,
		Code:         code,
		CreatorID:    creatorID,
		CreatorName:  "表示名",
		MaxUses:      maxUses,
		UsedCount:    used,
		ExpiresAt:    expiresAt,
		CreatedAt:    createdAt,
	}
	invites.codes[id] = c
	return c
}
