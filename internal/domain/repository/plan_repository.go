package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
)

// PlanRepository reads and lazily materializes plans.
// Read methods return (nil, nil) when nothing matches.
type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	// GetByType returns the plan of a well-known type, active or not.
	GetByType(ctx context.Context, planType model.PlanType) (*model.Plan, error)
	// FindActiveByTypeOrName matches value exactly against type or name.
	FindActiveByTypeOrName(ctx context.Context, value string) (*model.Plan, error)
	// CreateOrGet inserts plan unless a plan of the same well-known type
	// exists, and returns the stored row either way.
	CreateOrGet(ctx context.Context, plan *model.Plan) (*model.Plan, error)
	ListActive(ctx context.Context) ([]*model.Plan, error)
}
