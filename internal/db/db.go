package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/recipebook/internal/config"
)

// Open 根据配置打开数据库连接并执行自动迁移。
// sqlite 为默认驱动，DATABASE_PATH 为空时回退到 recipebook.db。
func Open(cfg config.AppConfig, logger gormlogger.Interface) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{}
	if logger != nil {
		gormCfg.Logger = logger
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate 为核心模型创建或更新表结构
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&Page{},
		&Image{},
		&Recipe{},
	)
}

func dialectorFor(cfg config.AppConfig) (gorm.Dialector, error) {
	if cfg.DatabaseDriver == config.DriverPostgres {
		dsn := strings.TrimSpace(cfg.DatabaseURL)
		if dsn == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		return postgres.Open(dsn), nil
	}

	path := strings.TrimSpace(cfg.DatabasePath)
	if path == "" {
		path = "recipebook.db"
	}
	if !strings.HasPrefix(path, "file:") {
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
	}
	return sqlite.Open(path), nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
