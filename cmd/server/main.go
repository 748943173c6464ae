package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/yohirayotuki-prog/vtuber-SNS/config"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/api/handler"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/api/middleware"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/api/router"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/repository"
	"github.com/yohirayotuki-prog/vtuber-SNS/internal/service"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/database"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/jwt"
	applogger "github.com/yohirayotuki-prog/vtuber-SNS/pkg/logger"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/metrics"
	"github.com/yohirayotuki-prog/vtuber-SNS/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	migrateCmd := flag.String("migrate", "", "仅执行迁移后退出：up | down | version")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if *migrateCmd != "" {
		if err := runMigrateCommand(*migrateCmd, sqlDB, logger); err != nil {
			logger.Fatal("迁移命令执行失败", zap.String("command", *migrateCmd), zap.Error(err))
		}
		return
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	// 接口变量必须保持 nil，不能装入 nil 的 *redis.Client
	var (
		blacklist service.TokenBlacklist
		limiter   middleware.WindowLimiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单不可用，限流降级为进程内", zap.Error(err))
		rdb = nil
	} else {
		blacklist = rdb
		limiter = rdb
	}

	// 5. 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := service.Metrics{
		Invite: metrics.NewInviteMetrics(reg),
		Auth:   metrics.NewAuthMetrics(reg),
	}

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, m, logger)
	h := handler.NewHandler(cfg, svc)

	// 8. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(router.Deps{
		Config:    cfg,
		Handler:   h,
		JWT:       jwtMgr,
		Blacklist: blacklist,
		Limiter:   limiter,
		Registry:  reg,
		Logger:    logger,
	})

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// runMigrateCommand 处理 -migrate 参数
func runMigrateCommand(cmd string, sqlDB *sql.DB, logger *zap.Logger) error {
	mg, err := database.NewMigrator(sqlDB, logger)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return mg.Up()
	case "down":
		return mg.Down()
	case "version":
		version, dirty, err := mg.Version()
		if err != nil {
			return err
		}
		logger.Info("当前迁移版本", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("未知迁移命令: %s", cmd)
	}
}
