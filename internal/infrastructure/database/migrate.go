package database

import (
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates the billing tables and their indexes.
// The statements are valid on PostgreSQL and SQLite.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&model.Plan{},
		&model.Subscription{},
		&model.Payment{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates the partial indexes GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		// One row per well-known plan type; lets concurrent slug
		// materialization converge on ON CONFLICT DO NOTHING.
		`CREATE UNIQUE INDEX IF NOT EXISTS unique_plan_per_well_known_type ON plans (type) WHERE type <> 'custom'`,
		// At most one active subscription per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_subscription_per_user ON subscriptions (user_id) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_payments_user_created ON payments (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
