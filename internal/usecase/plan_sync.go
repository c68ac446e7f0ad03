package usecase

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/wekeepgrowing/adcampaign-billing/internal/domain/errors"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"go.uber.org/zap"
)

// PlanSyncService stores every catalog plan ahead of the first purchase
type PlanSyncService struct {
	resolver *PlanResolver
	logger   *zap.Logger
}

// NewPlanSyncService creates a new plan synchronization service
func NewPlanSyncService(resolver *PlanResolver, logger *zap.Logger) *PlanSyncService {
	return &PlanSyncService{
		resolver: resolver,
		logger:   logger,
	}
}

// SyncCatalog resolves each catalog slug, creating missing plans.
// Existing plans are left unchanged. It is safe to run repeatedly.
func (s *PlanSyncService) SyncCatalog(ctx context.Context) ([]*model.Plan, error) {
	templates := s.resolver.Catalog().Templates()
	plans := make([]*model.Plan, 0, len(templates))

	for _, tmpl := range templates {
		plan, err := s.resolver.Resolve(ctx, string(tmpl.Type))
		var notFound *domainErrors.PlanNotFoundError
		if errors.As(err, &notFound) {
			s.logger.Warn("Plan is retired, skipping", zap.String("type", string(tmpl.Type)))
			continue
		}
		if err != nil {
			return plans, fmt.Errorf("failed to sync plan %s: %w", tmpl.Type, err)
		}

		s.logger.Info("Plan synced",
			zap.String("type", string(plan.Type)),
			zap.String("plan_id", plan.ID.String()),
			zap.String("price", plan.Price.String()))
		plans = append(plans, plan)
	}

	return plans, nil
}
