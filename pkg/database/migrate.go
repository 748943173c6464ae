package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator 迁移脚本随二进制 embed 分发
// 不提供 Close：关闭 golang-migrate 的 postgres 驱动会连带关闭传入的 *sql.DB
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator 基于已建立的连接创建迁移器
func NewMigrator(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移实例失败: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up 应用全部未执行的迁移
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}
	mg.logVersion("数据库迁移完成")
	return nil
}

// Down 回滚最近一次迁移
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, migrate.ErrNilVersion) {
			mg.logger.Info("没有可回滚的迁移")
			return nil
		}
		return fmt.Errorf("回滚迁移失败: %w", err)
	}
	mg.logVersion("已回滚一次迁移")
	return nil
}

// Version 当前版本；尚未执行任何迁移时返回 0
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (mg *Migrator) logVersion(msg string) {
	version, dirty, err := mg.Version()
	switch {
	case err != nil:
		mg.logger.Warn("读取迁移版本失败", zap.Error(err))
	case dirty:
		mg.logger.Warn("数据库迁移处于 dirty 状态，需要人工修复", zap.Uint("version", version))
	default:
		mg.logger.Info(msg, zap.Uint("version", version))
	}
}

// RunMigrations 启动时自动升级到最新版本
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	mg, err := NewMigrator(db, logger)
	if err != nil {
		return err
	}
	return mg.Up()
}
