package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/response"
)

// WindowLimiter 滑动窗口限流存储，*redis.Client 实现该接口
type WindowLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// limit: 窗口内允许的最大请求数
// window: 滑动窗口时长
// store 为 nil 或 Redis 出错时降级为进程内按 IP 令牌桶
func RateLimit(store WindowLimiter, limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	fallback := NewIPRateLimiter(limit, window)

	return func(c *gin.Context) {
		// 命名空间前缀由存储层统一添加
		key := c.ClientIP() + ":" + c.FullPath()

		var allowed bool
		if store != nil {
			ok, err := store.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err != nil {
				allowed = fallback.Allow(key)
			} else {
				allowed = ok
			}
		} else {
			allowed = fallback.Allow(key)
		}

		if !allowed {
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "请求过于频繁，请稍后再试")
			return
		}

		c.Next()
	}
}

// ── 进程内降级限流 ──

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 每个 key 一个令牌桶，长时间不活跃的 key 在访问时顺带清理
type IPRateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	ttl         time.Duration
	lastCleanup time.Time
}

// NewIPRateLimiter 窗口内允许 limit 次，折算为匀速令牌桶，突发上限为 limit
func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		visitors:    make(map[string]*visitor),
		limit:       rate.Limit(float64(limit) / window.Seconds()),
		burst:       limit,
		ttl:         2 * window,
		lastCleanup: time.Now(),
	}
}

// Allow 消耗一个令牌
func (rl *IPRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastCleanup) > rl.ttl {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lastCleanup = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}
