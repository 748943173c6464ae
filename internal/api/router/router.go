package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/api/handler"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/api/middleware"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/jwt"
)

// maxBodyBytes 请求体上限（1 MiB）
const maxBodyBytes int64 = 1 << 20

// Deps 路由依赖；Blacklist / Limiter 为 nil 时对应功能降级
type Deps struct {
	Config    *config.Config
	Handler   *handler.Handler
	JWT       *jwt.Manager
	Blacklist middleware.TokenBlacklist
	Limiter   middleware.WindowLimiter
	Registry  *prometheus.Registry
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	cfg, h := d.Config, d.Handler

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry})))
	}

	loginLimit := middleware.RateLimit(d.Limiter, cfg.RateLimit.LoginPerMinute, time.Minute)
	validateLimit := middleware.RateLimit(d.Limiter, cfg.RateLimit.ValidatePerMinute, time.Minute)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 注册页实时校验（无需认证，按 IP 限流）
		v1.GET("/invite-codes/:code/validate", validateLimit, h.InviteCode.Validate)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 邀请码模块
			invites := authorized.Group("/invite-codes")
			{
				invites.POST("", middleware.RequireUserType("vtuber"), h.InviteCode.Create)
				invites.GET("/mine", h.InviteCode.ListMine)
				invites.GET("/mine/export", h.InviteCode.Export)
				invites.DELETE("/:id", h.InviteCode.Delete)
			}

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.Auth.GetCurrentUser)
				users.PUT("/me", h.User.UpdateProfile)
				users.GET("/me/following", h.Follow.ListFollowing)
				users.GET("/me/following/posts", h.Post.ListFollowingFeed)
				users.GET("/:id", h.User.GetUser)
				users.GET("/:id/posts", h.Post.ListUserPosts)
			}

			// VTuber 搜索 / 关注 / 粉丝房间
			vtubers := authorized.Group("/vtubers")
			{
				vtubers.GET("", h.User.SearchVTubers)
				vtubers.GET("/:id/follow", h.Follow.Status)
				vtubers.POST("/:id/follow", h.Follow.Follow)
				vtubers.DELETE("/:id/follow", h.Follow.Unfollow)
				vtubers.GET("/:id/posts", h.Post.ListFanRoom)
			}

			// 帖子模块
			posts := authorized.Group("/posts")
			{
				posts.GET("", h.Post.ListTimeline)
				posts.POST("", h.Post.Create)
				posts.DELETE("/:id", h.Post.Delete)
				posts.POST("/:id/like", h.Post.Like)
				posts.DELETE("/:id/like", h.Post.Unlike)
				posts.GET("/:id/comments", h.Post.ListComments)
				posts.POST("/:id/comments", h.Post.Comment)
			}

			// 管理模块（Service 层再次校验管理员身份）
			admin := authorized.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				admin.GET("/vtubers", h.Admin.ListVTubers)
				admin.PUT("/users/:id/verification", h.Admin.GrantVerification)
				admin.DELETE("/users/:id/verification", h.Admin.RevokeVerification)
			}
		}
	}

	return r
}
