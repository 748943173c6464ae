package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	pkgerrors "github.com/yohirayotuki-prog/vtuber-SNS/pkg/errors"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/metrics"
)

// ── 邀请码模块业务错误 ──

var (
	ErrNotVTuber           = errors.New("只有 VTuber 可以创建邀请码")
	ErrNotVerifiedVTuber   = errors.New("只有认证 VTuber 可以创建邀请码")
	ErrInviteCodeParams    = errors.New("邀请码参数不合法")
	ErrInviteCodeGenerate  = errors.New("邀请码生成失败，请稍后重试")
	ErrInviteCodeInvalid   = errors.New("邀请码无效")
	ErrInviteCodeExpired   = errors.New("邀请码已过期")
	ErrInviteCodeExhausted = errors.New("邀请码已达到使用上限")
	ErrInviteCodeNotFound  = errors.New("邀请码不存在")
	ErrNotInviteCodeOwner  = errors.New("只能删除自己创建的邀请码")
	ErrExportGenerateFail  = errors.New("生成 Excel 文件失败")
)

const (
	// inviteCodeAlphabet 排除易混淆的 0/1/I/O，共 32 个符号
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength   = 8
)

// GenerateCode 生成 8 位邀请码，每一位从字母表中均匀抽取
func GenerateCode() (string, error) {
	size := big.NewInt(int64(len(inviteCodeAlphabet)))
	buf := make([]byte, inviteCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// NormalizeCode 用户输入的邀请码去空白并转大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidationStatus 实时校验结果状态
type ValidationStatus string

const (
	ValidationUsable      ValidationStatus = "usable"
	ValidationNotFound    ValidationStatus = "not_found"
	ValidationExpired     ValidationStatus = "expired"
	ValidationExhausted   ValidationStatus = "exhausted"
	ValidationCheckFailed ValidationStatus = "check_failed"
)

// ValidationResult 实时校验结果
// CheckFailed 表示存储不可达，与"码不可用"区分开
type ValidationResult struct {
	Status     ValidationStatus
	InviteCode *model.InviteCode // 查到记录时非 nil
	Err        error             // 仅 CheckFailed 时非 nil
}

// Valid 仅 usable 为 true
func (r ValidationResult) Valid() bool {
	return r.Status == ValidationUsable
}

// InviteCodeService 邀请码业务接口
type InviteCodeService interface {
	Create(ctx context.Context, creatorID string, req *dto.CreateInviteCodeRequest) (*dto.InviteCodeResponse, error)
	// Validate 只读校验，可任意次调用
	Validate(ctx context.Context, code string) ValidationResult
	// Use 原子兑换一次
	Use(ctx context.Context, code string) error
	// Redeem 在给定仓储（可为事务仓储）上兑换，返回被兑换的邀请码
	// 不记录兑换指标：事务内调用方须在提交或确定失败后调用 RecordRedemption
	Redeem(ctx context.Context, repo *repository.Repository, code string) (*model.InviteCode, error)
	RecordRedemption(err error)
	ListMine(ctx context.Context, creatorID string) ([]dto.InviteCodeResponse, error)
	Delete(ctx context.Context, codeID, requesterID string) error
	ExportMine(ctx context.Context, creatorID string) (*bytes.Buffer, string, error)
}

type inviteCodeService struct {
	cfg      *config.InviteConfig
	repo     *repository.Repository
	metrics  *metrics.InviteMetrics
	logger   *zap.Logger
	now      func() time.Time
	generate func() (string, error)
}

// NewInviteCodeService 创建 InviteCodeService 实例
func NewInviteCodeService(
	cfg *config.InviteConfig,
	repo *repository.Repository,
	m *metrics.InviteMetrics,
	logger *zap.Logger,
) InviteCodeService {
	return newInviteCodeService(cfg, repo, m, logger)
}

func newInviteCodeService(cfg *config.InviteConfig, repo *repository.Repository, m *metrics.InviteMetrics, logger *zap.Logger) *inviteCodeService {
	return &inviteCodeService{
		cfg:      cfg,
		repo:     repo,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		generate: GenerateCode,
	}
}

// ────────────────────── Create ──────────────────────

func (s *inviteCodeService) Create(ctx context.Context, creatorID string, req *dto.CreateInviteCodeRequest) (*dto.InviteCodeResponse, error) {
	creator, err := s.repo.User.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询创建者失败", zap.String("creator_id", creatorID), zap.Error(err))
		return nil, fmt.Errorf("查询创建者失败: %w", err)
	}
	if !creator.IsVTuber() {
		return nil, ErrNotVTuber
	}
	if !creator.IsVerified {
		return nil, ErrNotVerifiedVTuber
	}

	maxUses, daysValid, err := s.resolveOptions(req)
	if err != nil {
		return nil, err
	}

	retries := s.cfg.GenerateRetries
	if retries <= 0 {
		retries = 1
	}

	now := s.now()
	for attempt := 1; attempt <= retries; attempt++ {
		code, err := s.generate()
		if err != nil {
			s.logger.Error("生成随机邀请码失败", zap.Error(err))
			return nil, ErrInviteCodeGenerate
		}

		invite := &model.InviteCode{
			Code:        code,
			CreatorID:   creator.UserID,
			CreatorName: creator.DisplayName,
			MaxUses:     maxUses,
			UsedCount:   0,
			ExpiresAt:   now.AddDate(0, 0, daysValid),
			CreatedAt:   now,
		}

		err = s.repo.InviteCode.Create(ctx, invite)
		if err == nil {
			s.metrics.IncCreated()
			s.logger.Info("邀请码已创建",
				zap.String("invite_code_id", invite.InviteCodeID),
				zap.String("creator_id", creator.UserID),
				zap.Int("max_uses", maxUses),
				zap.Int("days_valid", daysValid),
			)
			return toInviteCodeResponse(invite, now), nil
		}
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			s.metrics.IncCollision()
			s.logger.Warn("邀请码冲突，重新生成", zap.Int("attempt", attempt))
			continue
		}

		s.logger.Error("保存邀请码失败", zap.String("creator_id", creator.UserID), zap.Error(err))
		return nil, fmt.Errorf("保存邀请码失败: %w", err)
	}

	s.logger.Error("邀请码连续冲突，放弃生成", zap.Int("retries", retries))
	return nil, ErrInviteCodeGenerate
}

// resolveOptions 缺省字段取配置默认值，显式给出的值必须为正且不超过上限
func (s *inviteCodeService) resolveOptions(req *dto.CreateInviteCodeRequest) (int, int, error) {
	maxUses := s.cfg.DefaultMaxUses
	daysValid := s.cfg.DefaultDaysValid
	if req != nil {
		if req.MaxUses != nil {
			maxUses = *req.MaxUses
		}
		if req.DaysValid != nil {
			daysValid = *req.DaysValid
		}
	}

	if maxUses <= 0 || daysValid <= 0 {
		return 0, 0, ErrInviteCodeParams
	}
	if s.cfg.MaxUsesLimit > 0 && maxUses > s.cfg.MaxUsesLimit {
		return 0, 0, ErrInviteCodeParams
	}
	if s.cfg.MaxDaysValid > 0 && daysValid > s.cfg.MaxDaysValid {
		return 0, 0, ErrInviteCodeParams
	}
	return maxUses, daysValid, nil
}

// ────────────────────── Validate ──────────────────────

func (s *inviteCodeService) Validate(ctx context.Context, code string) ValidationResult {
	result := s.validate(ctx, NormalizeCode(code))
	s.metrics.ObserveValidation(string(result.Status))
	return result
}

func (s *inviteCodeService) validate(ctx context.Context, code string) ValidationResult {
	if code == "" {
		return ValidationResult{Status: ValidationNotFound}
	}

	invite, err := s.repo.InviteCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ValidationResult{Status: ValidationNotFound}
		}
		s.logger.Error("校验邀请码时查询失败", zap.Error(err))
		return ValidationResult{Status: ValidationCheckFailed, Err: err}
	}

	switch invite.Status(s.now()) {
	case model.InviteCodeExpired:
		return ValidationResult{Status: ValidationExpired, InviteCode: invite}
	case model.InviteCodeExhausted:
		return ValidationResult{Status: ValidationExhausted, InviteCode: invite}
	default:
		return ValidationResult{Status: ValidationUsable, InviteCode: invite}
	}
}

// ────────────────────── Use / Redeem ──────────────────────

func (s *inviteCodeService) Use(ctx context.Context, code string) error {
	_, err := s.Redeem(ctx, s.repo, code)
	s.RecordRedemption(err)
	return err
}

func (s *inviteCodeService) Redeem(ctx context.Context, repo *repository.Repository, code string) (*model.InviteCode, error) {
	return s.redeem(ctx, repo, NormalizeCode(code))
}

func (s *inviteCodeService) RecordRedemption(err error) {
	s.metrics.ObserveRedemption(redemptionLabel(err))
}

func (s *inviteCodeService) redeem(ctx context.Context, repo *repository.Repository, code string) (*model.InviteCode, error) {
	if code == "" {
		return nil, ErrInviteCodeInvalid
	}

	invite, err := repo.InviteCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteCodeInvalid
		}
		s.logger.Error("兑换邀请码时查询失败", zap.Error(err))
		return nil, fmt.Errorf("查询邀请码失败: %w", err)
	}

	now := s.now()
	ok, err := repo.InviteCode.Redeem(ctx, invite.InviteCodeID, now)
	if err != nil {
		s.logger.Error("兑换邀请码失败", zap.String("invite_code_id", invite.InviteCodeID), zap.Error(err))
		return nil, fmt.Errorf("兑换邀请码失败: %w", err)
	}

	if !ok {
		// 条件更新未命中：重新读取以区分过期、用尽和已删除
		latest, err := repo.InviteCode.GetByID(ctx, invite.InviteCodeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInviteCodeInvalid
			}
			return nil, fmt.Errorf("查询邀请码失败: %w", err)
		}
		if latest.IsExpired(now) {
			return nil, ErrInviteCodeExpired
		}
		return nil, ErrInviteCodeExhausted
	}

	invite.UsedCount++
	s.logger.Info("邀请码已兑换",
		zap.String("invite_code_id", invite.InviteCodeID),
		zap.Int("used_count", invite.UsedCount),
	)
	return invite, nil
}

func redemptionLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrInviteCodeInvalid):
		return metrics.ResultNotFound
	case errors.Is(err, ErrInviteCodeExpired):
		return metrics.ResultExpired
	case errors.Is(err, ErrInviteCodeExhausted):
		return metrics.ResultExhausted
	default:
		return metrics.ResultCheckFailed
	}
}

// ────────────────────── ListMine ──────────────────────

func (s *inviteCodeService) ListMine(ctx context.Context, creatorID string) ([]dto.InviteCodeResponse, error) {
	codes, err := s.repo.InviteCode.ListByCreator(ctx, creatorID)
	if err != nil {
		s.logger.Error("查询我的邀请码失败", zap.String("creator_id", creatorID), zap.Error(err))
		return nil, fmt.Errorf("查询邀请码失败: %w", err)
	}

	now := s.now()
	result := make([]dto.InviteCodeResponse, 0, len(codes))
	for i := range codes {
		result = append(result, *toInviteCodeResponse(&codes[i], now))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *inviteCodeService) Delete(ctx context.Context, codeID, requesterID string) error {
	invite, err := s.repo.InviteCode.GetByID(ctx, codeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteCodeNotFound
		}
		s.logger.Error("查询邀请码失败", zap.String("invite_code_id", codeID), zap.Error(err))
		return fmt.Errorf("查询邀请码失败: %w", err)
	}

	if invite.CreatorID != requesterID {
		return ErrNotInviteCodeOwner
	}

	if err := s.repo.InviteCode.Delete(ctx, codeID); err != nil {
		s.logger.Error("删除邀请码失败", zap.String("invite_code_id", codeID), zap.Error(err))
		return fmt.Errorf("删除邀请码失败: %w", err)
	}

	s.metrics.IncDeleted()
	s.logger.Info("邀请码已删除", zap.String("invite_code_id", codeID), zap.String("creator_id", requesterID))
	return nil
}

// ────────────────────── ExportMine ──────────────────────

// ExportMine 导出创建者的全部邀请码为 Excel
// 表头：邀请码 | 已用 | 上限 | 剩余 | 状态 | 过期时间 | 创建时间
func (s *inviteCodeService) ExportMine(ctx context.Context, creatorID string) (*bytes.Buffer, string, error) {
	codes, err := s.ListMine(ctx, creatorID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "邀请码"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"邀请码", "已用", "上限", "剩余", "状态", "过期时间", "创建时间"}
	widths := []float64{14, 8, 8, 8, 10, 22, 22}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, widths[i])
		f.SetCellValue(sheetName, cellName(i+1, 1), h)
	}
	f.SetCellStyle(sheetName, cellName(1, 1), cellName(len(headers), 1), headerStyle)

	statusNames := map[string]string{
		string(model.InviteCodeActive):    "可用",
		string(model.InviteCodeExpired):   "已过期",
		string(model.InviteCodeExhausted): "已用尽",
	}

	for r, c := range codes {
		row := r + 2
		f.SetCellValue(sheetName, cellName(1, row), c.Code)
		f.SetCellValue(sheetName, cellName(2, row), c.UsedCount)
		f.SetCellValue(sheetName, cellName(3, row), c.MaxUses)
		f.SetCellValue(sheetName, cellName(4, row), c.RemainingUses)
		f.SetCellValue(sheetName, cellName(5, row), statusNames[c.Status])
		f.SetCellValue(sheetName, cellName(6, row), c.ExpiresAt)
		f.SetCellValue(sheetName, cellName(7, row), c.CreatedAt)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("邀请码_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toInviteCodeResponse(c *model.InviteCode, now time.Time) *dto.InviteCodeResponse {
	return &dto.InviteCodeResponse{
		ID:            c.InviteCodeID,
		Code:          c.Code,
		CreatorName:   c.CreatorName,
		MaxUses:       c.MaxUses,
		UsedCount:     c.UsedCount,
		RemainingUses: c.RemainingUses(),
		Status:        string(c.Status(now)),
		ExpiresAt:     formatTime(c.ExpiresAt),
		CreatedAt:     formatTime(c.CreatedAt),
	}
}
