package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
)

// VTuberListFilters VTuber 列表查询条件
type VTuberListFilters struct {
	Keyword  string // 匹配 username / display_name
	Verified *bool  // nil 表示不过滤
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	// Create 插入用户；email/username 冲突时返回 pkgerrors.ErrDuplicateKey
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdateProfile 带乐观锁更新资料字段，版本不匹配返回 pkgerrors.ErrOptimisticLock
	UpdateProfile(ctx context.Context, user *model.User) error
	// SetVerified 设置认证徽章；verifiedAt 为 nil 表示撤销
	SetVerified(ctx context.Context, id string, verified bool, verifiedAt *time.Time) error
	ListVTubers(ctx context.Context, filters *VTuberListFilters, offset, limit int) ([]model.User, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"display_name": user.DisplayName,
			"bio":          user.Bio,
			"avatar_url":   user.AvatarURL,
			"version":      oldVersion + 1,
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) SetVerified(ctx context.Context, id string, verified bool, verifiedAt *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"is_verified": verified,
			"verified_at": verifiedAt,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// likeEscaper 关键字中的 LIKE 通配符按字面匹配
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *userRepo) ListVTubers(ctx context.Context, filters *VTuberListFilters, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{}).
		Where("user_type = ?", model.UserTypeVTuber)

	if filters != nil {
		if filters.Keyword != "" {
			kw := "%" + likeEscaper.Replace(strings.ToLower(filters.Keyword)) + "%"
			db = db.Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\')`, kw, kw)
		}
		if filters.Verified != nil {
			db = db.Where("is_verified = ?", *filters.Verified)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
