// Package db owns the storage client and the persisted models.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Dialect string `conf:"dialect" yaml:"dialect" json:"dialect"`
	DSN     string `conf:"dsn" yaml:"dsn" json:"dsn"`
	Debug   bool   `conf:"debug" yaml:"debug" json:"debug"`
}

// New opens the database and migrates the schema.
func New(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Dialect {
	case "postgres", "pgx", "pg", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("invalid dialect: %s", cfg.Dialect)
	}

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	client, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := client.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return client, nil
}

// Close releases the underlying connection pool.
func Close(client *gorm.DB) error {
	if client == nil {
		return nil
	}

	sqlDB, err := client.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
