package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	// forUpdate locks the active row; set for repositories bound to a
	// WithUserLock transaction.
	forUpdate bool
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveByUserID retrieves the user's active subscription with its plan
func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription

	query := r.db.WithContext(ctx)
	if r.forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	err := query.
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get active subscription",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// Create creates a new subscription
func (r *subscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(subscription).Error

	if err != nil {
		r.logger.Error("Failed to create subscription",
			zap.String("user_id", subscription.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// Update overwrites every column of an existing subscription
func (r *subscriptionRepository) Update(ctx context.Context, subscription *model.Subscription) error {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(subscription)

	if result.Error != nil {
		r.logger.Error("Failed to update subscription",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	return nil
}
