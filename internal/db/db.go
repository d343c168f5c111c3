package db

import (
	"fmt"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres when DATABASE_URL is set and to the sqlite file otherwise,
// then migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if cfg.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(cfg.SQLitePath)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", dialector.Name(), err)
	}
	slog.Info("database connection established", "dialect", dialector.Name())

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates every table the blog uses.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Comment{},
		&models.File{},
		&models.Post{},
		&models.Page{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("database migration completed")
	return nil
}
