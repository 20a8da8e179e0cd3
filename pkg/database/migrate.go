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

// RunMigrations 将排期库 schema 升级到嵌入迁移的最新版本。
// 迁移文件随二进制一起发布，部署时无需额外的 SQL 目录。
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("读取内嵌迁移失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	err = m.Up()
	switch {
	case err == nil:
		version, _, _ := m.Version()
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	case errors.Is(err, migrate.ErrNoChange):
		version, dirty, _ := m.Version()
		if dirty {
			// dirty 状态下任何写入都不可信，必须人工介入
			return fmt.Errorf("迁移版本 %d 处于 dirty 状态，需人工修复", version)
		}
		logger.Info("数据库已是最新版本", zap.Uint("version", version))
	default:
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	return nil
}
