package repository

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the gorm-backed repository.Store
type Store struct {
	db            *gorm.DB
	logger        *zap.Logger
	plans         repository.PlanRepository
	subscriptions repository.SubscriptionRepository
	payments      repository.PaymentRepository
}

// NewStore creates repositories sharing db
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return newStore(db, logger, false)
}

func newStore(db *gorm.DB, logger *zap.Logger, locked bool) *Store {
	return &Store{
		db:     db,
		logger: logger,
		plans:  NewPlanRepository(db, logger),
		subscriptions: &subscriptionRepository{
			db:        db,
			logger:    logger,
			forUpdate: locked,
		},
		payments: NewPaymentRepository(db, logger),
	}
}

func (s *Store) Plans() repository.PlanRepository { return s.plans }
func (s *Store) Subscriptions() repository.SubscriptionRepository { return s.subscriptions }
func (s *Store) Payments() repository.PaymentRepository { return s.payments }

// WithUserLock runs fn in a transaction. On PostgreSQL the transaction first
// takes an advisory lock keyed by the user, so concurrent purchases by the
// same user run one after another; the lock is released on commit or rollback.
func (s *Store) WithUserLock(ctx context.Context, userID string, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "subscription:"+userID).Error; err != nil {
				s.logger.Error("Failed to acquire user lock",
					zap.String("user_id", userID),
					zap.Error(err))
				return fmt.Errorf("failed to acquire user lock: %w", err)
			}
		}
		return fn(newStore(tx, s.logger, true))
	})
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
