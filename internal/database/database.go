// Package database opens the gorm connection for the configured backend.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviedb/internal/config"
	"github.com/mantonx/moviedb/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the database described by cfg and applies pool settings.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "", "sqlite":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.Path)
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := OpenDialector(dialector, cfg.LogQueries)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.Info("database connected", "type", typeOrDefault(cfg.Type))
	return db, nil
}

// OpenSQLite opens a sqlite database file, creating its directory if needed.
func OpenSQLite(path string) (*gorm.DB, error) {
	return Open(config.DatabaseConfig{Type: "sqlite", Path: path})
}

// OpenDialector opens db with the settings shared by every backend. Driver
// errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func OpenDialector(dialector gorm.Dialector, logQueries bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if logQueries {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Ping checks that the connection is usable and reports the round trip.
func Ping(ctx context.Context, db *gorm.DB) (time.Duration, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newGormLogger(level gormlogger.LogLevel) gormlogger.Interface {
	writer := logger.Named("gorm").StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func typeOrDefault(t string) string {
	if t == "" {
		return "sqlite"
	}
	return t
}
