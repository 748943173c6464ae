package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/dto"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/model"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/metrics"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testInviteConfig() *config.InviteConfig {
	return &config.InviteConfig{
		DefaultMaxUses:   10,
		DefaultDaysValid: 30,
		MaxUsesLimit:     1000,
		MaxDaysValid:     365,
		GenerateRetries:  5,
	}
}

func newTestInviteService(repo *repository.Repository, m *metrics.InviteMetrics) *inviteCodeService {
	svc := newInviteCodeService(testInviteConfig(), repo, m, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

// sequenceGenerator 依次返回给定的 code，用完后重复最后一个
func sequenceGenerator(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}

func intPtr(v int) *int { return &v }

// ────────────────────── GenerateCode ──────────────────────

func TestGenerateCode_Format(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode 不应返回错误: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("期望长度 8，实际=%d (%s)", len(code), code)
		}
		for _, r := range code {
			if !strings.ContainsRune(inviteCodeAlphabet, r) {
				t.Fatalf("字符 %q 不在字母表中 (%s)", r, code)
			}
		}
		if strings.ContainsAny(code, "01IO") {
			t.Fatalf("不应包含易混淆字符: %s", code)
		}
	}
}

func TestGenerateCode_NoRepeatsInSample(t *testing.T) {
	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		code, _ := GenerateCode()
		if _, ok := seen[code]; ok {
			t.Fatalf("5000 次生成中出现重复: %s", code)
		}
		seen[code] = struct{}{}
	}
}

func TestGenerateCode_UsesWholeAlphabet(t *testing.T) {
	counts := make(map[rune]int)
	for i := 0; i < 2000; i++ {
		code, _ := GenerateCode()
		for _, r := range code {
			counts[r]++
		}
	}
	if len(counts) != len(inviteCodeAlphabet) {
		t.Errorf("期望用到全部 %d 个字符，实际=%d", len(inviteCodeAlphabet), len(counts))
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  abcd2345 \n"); got != "ABCD2345" {
		t.Errorf("期望 ABCD2345，实际=%s", got)
	}
	if got := NormalizeCode("   "); got != "" {
		t.Errorf("期望空串，实际=%q", got)
	}
}

// ────────────────────── Create ──────────────────────

func TestInviteCodeService_Create_Defaults(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestUser(mocks.users, "vt-1", "miko", model.UserTypeVTuber, true)
	svc := newTestInviteService(repo, nil)

	resp, err := svc.Create(context.Background(), "vt-1", &dto.CreateInviteCodeRequest{})
	if err != nil {
		t.Fatalf("期望成功，实际 err=%v", err)
	}
	if resp.MaxUses != 10 || resp.UsedCount != 0 || resp.RemainingUses != 10 {
		t.Errorf("默认值错误: max=%d used=%d remaining=%d", resp.MaxUses, resp.UsedCount, resp.RemainingUses)
	}
	if resp.Status != string(model.InviteCodeActive) {
		t.Errorf("期望 status=active，实际=%s", resp.Status)
	}
	if resp.CreatorName != "表示名-miko" {
		t.Errorf("期望昵称快照，实际=%s", resp.CreatorName)
	}
	if want := testNow.AddDate(0, 0, 30).Format(time.RFC3339); resp.ExpiresAt != want {
		t.Errorf("期望 expires_at=%s，实际=%s", want, resp.ExpiresAt)
	}

	stored := mocks.invites.get(resp.ID)
	if stored == nil || stored.Code != resp.Code || stored.CreatorID != "vt-1" {
		t.Errorf("邀请码未正确持久化: %+v", stored)
	}
}

func TestInviteCodeService_Create_CustomOptions(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestUser(mocks.users, "vt-1", "miko", model.UserTypeVTuber, true)
	svc := newTestInviteService(repo, nil)

	resp, err := svc.Create(context.Background(), "vt-1", &dto.CreateInviteCodeRequest{
		MaxUses:   intPtr(3),
		DaysValid: intPtr(7),
	})
	if err != nil {
		t.Fatalf("期望成功，实际 err=%v", err)
	}
	if resp.MaxUses != 3 {
		t.Errorf("期望 max_uses=3，实际=%d", resp.MaxUses)
	}
	if want := testNow.AddDate(0, 0, 7).Format(time.RFC3339); resp.ExpiresAt != want {
		t.Errorf("期望 expires_at=%s，实际=%s", want, resp.ExpiresAt)
	}
}

func TestInviteCodeService_Create_NilRequestUsesDefaults(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestUser(mocks.users, "vt-1", "miko", model.UserTypeVTuber, true)
	svc := newTestInviteService(repo, nil)

	resp, err := svc.Create(context.Background(), "vt-1", nil)
	if err != nil {
		t.Fatalf("期望成功，实际 err=%v", err)
	}
	if resp.MaxUses != 10 {
		t.Errorf("期望 max_uses=10，实际=%d", resp.MaxUses)
	}
}

func TestInviteCodeService_Create_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		seed    func(m *mockRepos)
		userID  string
		req     *dto.CreateInviteCodeRequest
		wantErr error
	}{
		{
			name:    "粉丝账号",
			seed:    func(m *mockRepos) { seedTestUser(m.users, "u-1", "fan", model.UserTypeListener, false) },
			userID:  "u-1",
			wantErr: ErrNotVTuber,
		},
		{
			name:    "未认证 VTuber",
			seed:    func(m *mockRepos) { seedTestUser(m.users, "u-1", "rookie", model.UserTypeVTuber, false) },
			userID:  "u-1",
			wantErr: ErrNotVerifiedVTuber,
		},
		{
			name:    "用户不存在",
			seed:    func(m *mockRepos) {},
			userID:  "ghost",
			wantErr: ErrUserNotFound,
		},
		{
			name:    "max_uses 为 0",
			seed:    func(m *mockRepos) { seedTestUser(m.users, "u-1", "miko", model.UserTypeVTuber, true) },
			userID:  "u-1",
			req:     &dto.CreateInviteCodeRequest{MaxUses: intPtr(0)},
			wantErr: ErrInviteCodeParams,
		},
		{
			name:    "max_uses 超过上限",
			seed:    func(m *mockRepos) { seedTestUser(m.users, "u-1", "miko", model.UserTypeVTuber, true) },
			userID:  "u-1",
			req:     &dto.CreateInviteCodeRequest{MaxUses: intPtr(1001)},
			wantErr: ErrInviteCodeParams,
		},
		{
			name:    "days_valid 为负",
			seed:    func(m *mockRepos) { seedTestUser(m.users, "u-1", "miko", model.UserTypeVTuber, true) },
			userID:  "u-1",
			req:     &dto.CreateInviteCodeRequest{DaysValid: intPtr(-1)},
			wantErr: ErrInviteCodeParams,
		},
		{
			name:    "days_valid 超过上限",
			seed:    func(m *mockRepos) { seedTestUser(m.users, "u-1", "miko", model.UserTypeVTuber, true) },
			userID:  "u-1",
			req:     &dto.CreateInviteCodeRequest{DaysValid: intPtr(366)},
			wantErr: ErrInviteCodeParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mocks := newMockRepository()
			tt.seed(mocks)
			svc := newTestInviteService(repo, nil)

			_, err := svc.Create(context.Background(), tt.userID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际=%v", tt.wantErr, err)
			}
			if mocks.invites.inserts != 0 {
				t.Errorf("被拒绝时不应写入邀请码，实际写入 %d 次", mocks.invites.inserts)
			}
		})
	}
}

func TestInviteCodeService_Create_RetriesOnCollision(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestUser(mocks.users, "vt-1", "miko", model.UserTypeVTuber, true)
	seedTestInvite(mocks.invites, "existing", "AAAA2222", "vt-1", 5, 0, testNow.Add(time.Hour), testNow)

	reg := prometheus.NewRegistry()
	svc := newTestInviteService(repo, metrics.NewInviteMetrics(reg))
	svc.generate = sequenceGenerator("AAAA2222", "AAAA2222", "BBBB3333")

	resp, err := svc.Create(context.Background(), "vt-1", nil)
	if err != nil {
		t.Fatalf("冲突后重试应成功，实际 err=%v", err)
	}
	if resp.Code != "BBBB3333" {
		t.Errorf("期望 code=BBBB3333，实际=%s", resp.Code)
	}
	if mocks.invites.inserts != 3 {
		t.Errorf("期望写入 3 次，实际=%d", mocks.invites.inserts)
	}

	expected := `
# HELP invite_code_collisions_total Generated invite codes rejected by the unique index and regenerated.
# TYPE invite_code_collisions_total counter
invite_code_collisions_total 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "invite_code_collisions_total"); err != nil {
		t.Errorf("冲突计数错误: %v", err)
	}
}

func TestInviteCodeService_Create_GiveUpAfterRetries(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestUser(mocks.users, "vt-1", "miko", model.UserTypeVTuber, true)
	seedTestInvite(mocks.invites, "existing", "AAAA2222", "vt-1", 5, 0, testNow.Add(time.Hour), testNow)

	svc := newTestInviteService(repo, nil)
	svc.generate = sequenceGenerator("AAAA2222")

	_, err := svc.Create(context.Background(), "vt-1", nil)
	if !errors.Is(err, ErrInviteCodeGenerate) {
		t.Fatalf("期望 ErrInviteCodeGenerate，实际=%v", err)
	}
	if mocks.invites.inserts != 5 {
		t.Errorf("期望尝试 5 次，实际=%d", mocks.invites.inserts)
	}
}

func TestInviteCodeService_Create_RandomSourceFailure(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestUser(mocks.users, "vt-1", "miko", model.UserTypeVTuber, true)

	svc := newTestInviteService(repo, nil)
	svc.generate = func() (string, error) { return "", errors.New("entropy unavailable") }

	if _, err := svc.Create(context.Background(), "vt-1", nil); !errors.Is(err, ErrInviteCodeGenerate) {
		t.Errorf("期望 ErrInviteCodeGenerate，实际=%v", err)
	}
}

func TestInviteCodeService_Create_StoreFailure(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestUser(mocks.users, "vt-1", "miko", model.UserTypeVTuber, true)
	mocks.invites.createErr = errors.New("connection refused")

	svc := newTestInviteService(repo, nil)
	_, err := svc.Create(context.Background(), "vt-1", nil)
	if err == nil || errors.Is(err, ErrInviteCodeGenerate) {
		t.Errorf("存储失败应原样上报，实际=%v", err)
	}
	if mocks.invites.inserts != 1 {
		t.Errorf("非冲突错误不应重试，实际写入 %d 次", mocks.invites.inserts)
	}
}

// ────────────────────── Validate ──────────────────────

func TestInviteCodeService_Validate(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-ok", "GOOD2345", "vt-1", 5, 2, testNow.Add(24*time.Hour), testNow)
	seedTestInvite(mocks.invites, "i-exp", "LATE2345", "vt-1", 5, 0, testNow.Add(-time.Minute), testNow)
	seedTestInvite(mocks.invites, "i-edge", "EDGE2345", "vt-1", 5, 0, testNow, testNow)
	seedTestInvite(mocks.invites, "i-full", "FULL2345", "vt-1", 2, 2, testNow.Add(24*time.Hour), testNow)
	seedTestInvite(mocks.invites, "i-both", "BOTH2345", "vt-1", 2, 2, testNow.Add(-time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	tests := []struct {
		code string
		want ValidationStatus
	}{
		{"GOOD2345", ValidationUsable},
		{"  good2345 ", ValidationUsable},
		{"LATE2345", ValidationExpired},
		{"EDGE2345", ValidationExpired},
		{"FULL2345", ValidationExhausted},
		{"BOTH2345", ValidationExpired},
		{"NOPE2345", ValidationNotFound},
		{"", ValidationNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := svc.Validate(context.Background(), tt.code)
			if result.Status != tt.want {
				t.Errorf("期望 %s，实际=%s", tt.want, result.Status)
			}
			if result.Valid() != (tt.want == ValidationUsable) {
				t.Errorf("Valid() 与状态不一致: %v", result.Valid())
			}
		})
	}

	// 校验不产生副作用
	if got := mocks.invites.get("i-ok").UsedCount; got != 2 {
		t.Errorf("Validate 不应修改 used_count，实际=%d", got)
	}
}

func TestInviteCodeService_Validate_CheckFailed(t *testing.T) {
	repo, mocks := newMockRepository()
	mocks.invites.getErr = errors.New("connection refused")
	svc := newTestInviteService(repo, nil)

	result := svc.Validate(context.Background(), "GOOD2345")
	if result.Status != ValidationCheckFailed {
		t.Fatalf("存储不可达时期望 check_failed，实际=%s", result.Status)
	}
	if result.Valid() {
		t.Error("check_failed 不应视为可用")
	}
	if result.Err == nil {
		t.Error("check_failed 应携带底层错误")
	}
}

// ────────────────────── Use ──────────────────────

func TestInviteCodeService_Use(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-ok", "GOOD2345", "vt-1", 5, 0, testNow.Add(24*time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	if err := svc.Use(context.Background(), "good2345"); err != nil {
		t.Fatalf("期望兑换成功，实际 err=%v", err)
	}

	stored := mocks.invites.get("i-ok")
	if stored.UsedCount != 1 {
		t.Errorf("期望 used_count=1，实际=%d", stored.UsedCount)
	}
	if stored.MaxUses != 5 || stored.Code != "GOOD2345" || !stored.ExpiresAt.Equal(testNow.Add(24*time.Hour)) {
		t.Errorf("兑换不应修改其他字段: %+v", stored)
	}
}

func TestInviteCodeService_Use_SingleUseTwice(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-1", "ONCE2345", "vt-1", 1, 0, testNow.Add(time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	if err := svc.Use(context.Background(), "ONCE2345"); err != nil {
		t.Fatalf("第一次兑换应成功: %v", err)
	}
	if err := svc.Use(context.Background(), "ONCE2345"); !errors.Is(err, ErrInviteCodeExhausted) {
		t.Errorf("第二次兑换期望 ErrInviteCodeExhausted，实际=%v", err)
	}
	if got := mocks.invites.get("i-1").UsedCount; got != 1 {
		t.Errorf("期望 used_count=1，实际=%d", got)
	}
}

func TestInviteCodeService_Use_Failures(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-exp", "LATE2345", "vt-1", 5, 0, testNow.Add(-time.Second), testNow)
	seedTestInvite(mocks.invites, "i-full", "FULL2345", "vt-1", 3, 3, testNow.Add(time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	tests := []struct {
		code    string
		wantErr error
	}{
		{"LATE2345", ErrInviteCodeExpired},
		{"FULL2345", ErrInviteCodeExhausted},
		{"NOPE2345", ErrInviteCodeInvalid},
		{"", ErrInviteCodeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if err := svc.Use(context.Background(), tt.code); !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际=%v", tt.wantErr, err)
			}
		})
	}

	if got := mocks.invites.get("i-exp").UsedCount; got != 0 {
		t.Errorf("过期码不应被计数，实际=%d", got)
	}
	if got := mocks.invites.get("i-full").UsedCount; got != 3 {
		t.Errorf("用尽码不应超出上限，实际=%d", got)
	}
}

func TestInviteCodeService_Use_StoreFailure(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-ok", "GOOD2345", "vt-1", 5, 0, testNow.Add(time.Hour), testNow)
	mocks.invites.redeemErr = errors.New("connection reset")
	svc := newTestInviteService(repo, nil)

	err := svc.Use(context.Background(), "GOOD2345")
	if err == nil {
		t.Fatal("存储失败时期望返回错误")
	}
	for _, business := range []error{ErrInviteCodeInvalid, ErrInviteCodeExpired, ErrInviteCodeExhausted} {
		if errors.Is(err, business) {
			t.Errorf("存储失败不应被归类为 %v", business)
		}
	}
}

func TestInviteCodeService_Use_Concurrent(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-1", "RACE2345", "vt-1", 3, 0, testNow.Add(time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exhausted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Use(context.Background(), "RACE2345")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInviteCodeExhausted):
				exhausted++
			default:
				t.Errorf("意外错误: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("期望恰好 3 次成功，实际=%d", succeeded)
	}
	if exhausted != workers-3 {
		t.Errorf("期望 %d 次用尽，实际=%d", workers-3, exhausted)
	}
	if got := mocks.invites.get("i-1").UsedCount; got != 3 {
		t.Errorf("期望 used_count=3，实际=%d", got)
	}
}

func TestInviteCodeService_Use_Metrics(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-1", "ONCE2345", "vt-1", 1, 0, testNow.Add(time.Hour), testNow)
	reg := prometheus.NewRegistry()
	svc := newTestInviteService(repo, metrics.NewInviteMetrics(reg))

	_ = svc.Use(context.Background(), "ONCE2345")
	_ = svc.Use(context.Background(), "ONCE2345")
	_ = svc.Use(context.Background(), "NOPE2345")

	expected := `
# HELP invite_code_redemptions_total Invite code redemption results.
# TYPE invite_code_redemptions_total counter
invite_code_redemptions_total{result="exhausted"} 1
invite_code_redemptions_total{result="not_found"} 1
invite_code_redemptions_total{result="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "invite_code_redemptions_total"); err != nil {
		t.Errorf("兑换计数错误: %v", err)
	}
}

// ────────────────────── ListMine ──────────────────────

func TestInviteCodeService_ListMine(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-old", "OLDD2345", "vt-1", 5, 5, testNow.Add(time.Hour), testNow.Add(-2*time.Hour))
	seedTestInvite(mocks.invites, "i-new", "NEWW2345", "vt-1", 5, 1, testNow.Add(time.Hour), testNow.Add(-time.Hour))
	seedTestInvite(mocks.invites, "i-other", "OTHR2345", "vt-2", 5, 0, testNow.Add(time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	list, err := svc.ListMine(context.Background(), "vt-1")
	if err != nil {
		t.Fatalf("ListMine 不应报错: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("期望 2 条，实际=%d", len(list))
	}
	if list[0].Code != "NEWW2345" || list[1].Code != "OLDD2345" {
		t.Errorf("期望按创建时间倒序，实际=%s,%s", list[0].Code, list[1].Code)
	}
	if list[0].RemainingUses != 4 || list[0].Status != string(model.InviteCodeActive) {
		t.Errorf("NEWW2345 派生字段错误: %+v", list[0])
	}
	if list[1].RemainingUses != 0 || list[1].Status != string(model.InviteCodeExhausted) {
		t.Errorf("OLDD2345 派生字段错误: %+v", list[1])
	}
}

func TestInviteCodeService_ListMine_Empty(t *testing.T) {
	repo, _ := newMockRepository()
	svc := newTestInviteService(repo, nil)

	list, err := svc.ListMine(context.Background(), "vt-1")
	if err != nil {
		t.Fatalf("ListMine 不应报错: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("期望空切片，实际=%v", list)
	}
}

func TestInviteCodeService_ListMine_StoreFailure(t *testing.T) {
	repo, mocks := newMockRepository()
	mocks.invites.getErr = errors.New("connection refused")
	svc := newTestInviteService(repo, nil)

	if _, err := svc.ListMine(context.Background(), "vt-1"); err == nil {
		t.Error("存储失败时不应返回空列表")
	}
}

// ────────────────────── Delete ──────────────────────

func TestInviteCodeService_Delete(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-1", "MINE2345", "vt-1", 5, 0, testNow.Add(time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	if err := svc.Delete(context.Background(), "i-1", "vt-2"); !errors.Is(err, ErrNotInviteCodeOwner) {
		t.Errorf("非创建者删除期望 ErrNotInviteCodeOwner，实际=%v", err)
	}
	if mocks.invites.get("i-1") == nil {
		t.Fatal("非创建者删除后记录不应消失")
	}

	if err := svc.Delete(context.Background(), "i-1", "vt-1"); err != nil {
		t.Fatalf("创建者删除应成功: %v", err)
	}
	if result := svc.Validate(context.Background(), "MINE2345"); result.Status != ValidationNotFound {
		t.Errorf("删除后校验期望 not_found，实际=%s", result.Status)
	}
	if err := svc.Use(context.Background(), "MINE2345"); !errors.Is(err, ErrInviteCodeInvalid) {
		t.Errorf("删除后兑换期望 ErrInviteCodeInvalid，实际=%v", err)
	}

	if err := svc.Delete(context.Background(), "i-1", "vt-1"); !errors.Is(err, ErrInviteCodeNotFound) {
		t.Errorf("重复删除期望 ErrInviteCodeNotFound，实际=%v", err)
	}
}

// ────────────────────── ExportMine ──────────────────────

func TestInviteCodeService_ExportMine(t *testing.T) {
	repo, mocks := newMockRepository()
	seedTestInvite(mocks.invites, "i-1", "XLSX2345", "vt-1", 5, 2, testNow.Add(time.Hour), testNow)
	svc := newTestInviteService(repo, nil)

	buf, filename, err := svc.ExportMine(context.Background(), "vt-1")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "邀请码_20261015.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法解析导出文件: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("邀请码")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望 1 行表头 + 1 行数据，实际=%d", len(rows))
	}
	if rows[0][0] != "邀请码" || rows[0][4] != "状态" {
		t.Errorf("表头错误: %v", rows[0])
	}
	if rows[1][0] != "XLSX2345" || rows[1][3] != "3" || rows[1][4] != "可用" {
		t.Errorf("数据行错误: %v", rows[1])
	}
}
