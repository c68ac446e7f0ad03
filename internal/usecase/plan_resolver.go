package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/catalog"
	domainErrors "github.com/wekeepgrowing/adcampaign-billing/internal/domain/errors"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// PlanResolver turns a package identifier into a stored plan. Well-known
// slugs are materialized from the catalog on first use.
type PlanResolver struct {
	plans    repository.PlanRepository
	catalog  *catalog.Catalog
	currency string
	logger   *zap.Logger
}

func NewPlanResolver(plans repository.PlanRepository, catalog *catalog.Catalog, currency string, logger *zap.Logger) *PlanResolver {
	return &PlanResolver{
		plans:    plans,
		catalog:  catalog,
		currency: currency,
		logger:   logger,
	}
}

// Resolve looks packageID up as a plan ID, then as a catalog slug, then as a
// plan type or name. A valid ID that matches nothing is not retried as a
// slug. Unknown identifiers yield *errors.PlanNotFoundError.
func (r *PlanResolver) Resolve(ctx context.Context, packageID string) (*model.Plan, error) {
	if id, err := uuid.Parse(strings.TrimSpace(packageID)); err == nil {
		plan, err := r.plans.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve plan by ID: %w", err)
		}
		if plan == nil {
			return nil, domainErrors.NewPlanNotFoundError(packageID)
		}
		return plan, nil
	}

	if tmpl, ok := r.catalog.Lookup(packageID); ok {
		return r.materialize(ctx, packageID, tmpl)
	}

	plan, err := r.plans.FindActiveByTypeOrName(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan by name: %w", err)
	}
	if plan == nil {
		return nil, domainErrors.NewPlanNotFoundError(packageID)
	}
	return plan, nil
}

func (r *PlanResolver) materialize(ctx context.Context, packageID string, tmpl catalog.Template) (*model.Plan, error) {
	plan, err := r.plans.GetByType(ctx, tmpl.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan by type: %w", err)
	}

	if plan == nil {
		plan, err = r.plans.CreateOrGet(ctx, tmpl.NewPlan(r.currency))
		if err != nil {
			return nil, fmt.Errorf("failed to materialize plan: %w", err)
		}
		r.logger.Debug("Resolved plan from catalog",
			zap.String("slug", packageID),
			zap.String("plan_id", plan.ID.String()))
	}

	// A retired well-known plan keeps its row and cannot be bought by slug.
	if !plan.IsActive {
		return nil, domainErrors.NewPlanNotFoundError(packageID)
	}
	return plan, nil
}

// Catalog returns the templates the resolver materializes from
func (r *PlanResolver) Catalog() *catalog.Catalog {
	return r.catalog
}
