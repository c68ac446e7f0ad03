package repository

import "context"

// Store groups the repositories that back a purchase.
type Store interface {
	Plans() PlanRepository
	Subscriptions() SubscriptionRepository
	Payments() PaymentRepository

	// WithUserLock runs fn exclusively with respect to every other
	// WithUserLock call for the same user. Writes made through the Store
	// passed to fn commit together when fn returns nil and are discarded
	// otherwise.
	WithUserLock(ctx context.Context, userID string, fn func(tx Store) error) error
}
