package database

import (
	"fmt"

	"github.com/wekeepgrowing/adcampaign-billing/internal/adapter/repository"
	"github.com/wekeepgrowing/adcampaign-billing/internal/adapter/repository/memory"
	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	domainRepo "github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// OpenStore opens the store selected by cfg.Driver. SQL drivers are
// connected and migrated. The returned close function releases the
// connection.
func OpenStore(cfg *config.DatabaseConfig, logger *zap.Logger) (domainRepo.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), func() error { return nil }, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := NewConnection(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(db, logger); err != nil {
			_ = Close(db, logger)
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return repository.NewStore(db, logger), func() error { return Close(db, logger) }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
