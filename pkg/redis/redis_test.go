package redis

import "testing"

func TestRateLimitKey_SinglePrefix(t *testing.T) {
	// 调用方只传 IP:路由，前缀只在这里加一次
	got := rateLimitKey("192.0.2.1:/api/v1/auth/login")
	want := "rate_limit:192.0.2.1:/api/v1/auth/login"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
