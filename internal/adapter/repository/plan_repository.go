package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type planRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB, logger *zap.Logger) repository.PlanRepository {
	return &planRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a plan by ID regardless of its active flag
func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var plan model.Plan

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get plan by ID",
			zap.String("plan_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// GetByType retrieves the plan of a well-known type
func (r *planRepository) GetByType(ctx context.Context, planType model.PlanType) (*model.Plan, error) {
	var plan model.Plan

	err := r.db.WithContext(ctx).
		Where("type = ?", planType).
		Order("created_at ASC").
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get plan by type",
			zap.String("type", string(planType)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get plan by type: %w", err)
	}

	return &plan, nil
}

// FindActiveByTypeOrName retrieves an active plan whose type or name equals value
func (r *planRepository) FindActiveByTypeOrName(ctx context.Context, value string) (*model.Plan, error) {
	var plan model.Plan

	err := r.db.WithContext(ctx).
		Where("(type = ? OR name = ?) AND is_active = ?", value, value, true).
		Order("created_at ASC").
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find plan by type or name",
			zap.String("value", value),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}

	return &plan, nil
}

// CreateOrGet inserts the plan, ignoring a conflict on the per-type unique
// index, then reads back the row that won.
func (r *planRepository) CreateOrGet(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(plan)

	if result.Error != nil {
		r.logger.Error("Failed to create plan",
			zap.String("type", string(plan.Type)),
			zap.Error(result.Error))
		return nil, fmt.Errorf("failed to create plan: %w", result.Error)
	}

	if plan.Type == model.PlanTypeCustom {
		return plan, nil
	}

	if result.RowsAffected == 1 {
		r.logger.Info("Plan materialized",
			zap.String("plan_id", plan.ID.String()),
			zap.String("type", string(plan.Type)))
	}

	stored, err := r.GetByType(ctx, plan.Type)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("plan of type %s missing after insert", plan.Type)
	}
	return stored, nil
}

// ListActive retrieves all active plans ordered by price
func (r *planRepository) ListActive(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price ASC, name ASC").
		Find(&plans).Error

	if err != nil {
		r.logger.Error("Failed to list plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}
