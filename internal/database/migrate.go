package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/paiban/staffplan/pkg/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

// RunMigrations 执行数据库迁移，按驱动选择对应目录
func RunMigrations(db *DB) error {
	driverName := db.Driver()
	source, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	var driver migratedb.Driver
	switch driverName {
	case "postgres":
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case "sqlite3":
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", driverName)
	}
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn().Uint("version", version).Msg("数据库迁移处于 dirty 状态")
	} else {
		logger.Info().Uint("version", version).Msg("数据库迁移完成")
	}
	return nil
}
