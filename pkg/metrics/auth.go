package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuthMetrics 注册与登录指标
type AuthMetrics struct {
	signups       *prometheus.CounterVec
	loginFailures prometheus.Counter
}

// NewAuthMetrics 在 reg 上注册认证指标；reg 为 nil 时返回空实现
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	m := &AuthMetrics{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signups_total",
			Help: "Account registrations by user type and result.",
		}, []string{"user_type", "result"}),
		loginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "login_failures_total",
			Help: "Rejected login attempts.",
		}),
	}
	reg.MustRegister(m.signups, m.loginFailures)
	return m
}

// ObserveSignup 记录一次注册结果
func (m *AuthMetrics) ObserveSignup(userType, result string) {
	if m == nil || m.signups == nil {
		return
	}
	m.signups.WithLabelValues(normalizeLabel(userType), normalizeLabel(result)).Inc()
}

// IncLoginFailure 记录一次登录失败
func (m *AuthMetrics) IncLoginFailure() {
	if m == nil || m.loginFailures == nil {
		return
	}
	m.loginFailures.Inc()
}
