package repository

import (
	"context"

	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
)

type SubscriptionRepository interface {
	// GetActiveByUserID returns the user's active subscription with its Plan
	// loaded. Inside WithUserLock the row is locked for update.
	GetActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	Create(ctx context.Context, subscription *model.Subscription) error
	Update(ctx context.Context, subscription *model.Subscription) error
}
