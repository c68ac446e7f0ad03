package database

import (
	"context"
	"fmt"
	"time"

	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	"github.com/wekeepgrowing/adcampaign-billing/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

// NewConnection opens the relational database named by cfg.Driver and
// applies the pool settings from cfg.
func NewConnection(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("driver %q has no SQL connection", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.NewGormLogger(log, gormlogger.Warn, cfg.SlowThreshold, true),
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              cfg.Driver == config.DriverPostgres,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	configurePool(cfg, sqlDB)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	log.Info("Database connection established",
		zap.String("driver", cfg.Driver),
		zap.String("target", target(cfg)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return db, nil
}

type pool interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	SetConnMaxIdleTime(d time.Duration)
}

// configurePool applies cfg to p. SQLite has a single writer and an
// in-memory database lives only as long as its connection, so it is held
// to one connection that is never recycled.
func configurePool(cfg *config.DatabaseConfig, p pool) {
	if cfg.Driver == config.DriverSQLite {
		p.SetMaxOpenConns(1)
		p.SetMaxIdleConns(1)
		return
	}

	if cfg.MaxOpenConns > 0 {
		p.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	idle := cfg.MaxIdleConns
	if cfg.MaxOpenConns > 0 && idle > cfg.MaxOpenConns {
		idle = cfg.MaxOpenConns
	}
	p.SetMaxIdleConns(idle)
	p.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	p.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func target(cfg *config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return cfg.Path
	}
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
}

// Close closes the database connection
func Close(db *gorm.DB, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	log.Info("Database connection closed")
	return nil
}
