package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	// ListByUserID returns the most recent payments first.
	ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Payment, error)
}
