package metrics

import "github.com/prometheus/client_golang/prometheus"

// 兑换/校验结果标签
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultExpired     = "expired"
	ResultExhausted   = "exhausted"
	ResultCheckFailed = "check_failed"
)

// InviteMetrics 邀请码生命周期指标
// 所有方法对 nil 接收者安全，单元测试可直接传 nil
type InviteMetrics struct {
	created     prometheus.Counter
	collisions  prometheus.Counter
	validations *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	deleted     prometheus.Counter
}

// NewInviteMetrics 在 reg 上注册邀请码指标；reg 为 nil 时返回空实现
func NewInviteMetrics(reg prometheus.Registerer) *InviteMetrics {
	if reg == nil {
		return &InviteMetrics{}
	}
	m := &InviteMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invite_codes_created_total",
			Help: "Invite codes created by verified VTubers.",
		}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invite_code_collisions_total",
			Help: "Generated invite codes rejected by the unique index and regenerated.",
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invite_code_validations_total",
			Help: "Invite code validation results.",
		}, []string{"result"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invite_code_redemptions_total",
			Help: "Invite code redemption results.",
		}, []string{"result"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invite_codes_deleted_total",
			Help: "Invite codes hard-deleted by their creators.",
		}),
	}
	reg.MustRegister(m.created, m.collisions, m.validations, m.redemptions, m.deleted)
	return m
}

// IncCreated 记录一次创建
func (m *InviteMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IncCollision 记录一次 code 冲突重试
func (m *InviteMetrics) IncCollision() {
	if m == nil || m.collisions == nil {
		return
	}
	m.collisions.Inc()
}

// ObserveValidation 记录一次校验结果
func (m *InviteMetrics) ObserveValidation(result string) {
	if m == nil || m.validations == nil {
		return
	}
	m.validations.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveRedemption 记录一次兑换结果
func (m *InviteMetrics) ObserveRedemption(result string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncDeleted 记录一次删除
func (m *InviteMetrics) IncDeleted() {
	if m == nil || m.deleted == nil {
		return
	}
	m.deleted.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
