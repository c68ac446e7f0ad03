package usecase

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/wekeepgrowing/adcampaign-billing/internal/domain/errors"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// DefaultSubscriptionTerm is the length of every purchased term
const DefaultSubscriptionTerm = 30 * 24 * time.Hour

// SubscriptionLedger keeps at most one active subscription per user.
// ApplyPurchase must run inside Store.WithUserLock.
type SubscriptionLedger struct {
	term   time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewSubscriptionLedger(term time.Duration, logger *zap.Logger) *SubscriptionLedger {
	if term <= 0 {
		term = DefaultSubscriptionTerm
	}
	return &SubscriptionLedger{
		term:   term,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source
func (l *SubscriptionLedger) WithClock(now func() time.Time) *SubscriptionLedger {
	l.now = now
	return l
}

// ApplyPurchase records a paid purchase of plan.
//
// Without an active subscription a new one is created. An active
// subscription of the same plan type yields *errors.PackageAlreadyActiveError
// and nothing is written. Otherwise the active row is overwritten in place
// with a fresh term and keeps its ID.
func (l *SubscriptionLedger) ApplyPurchase(ctx context.Context, subs repository.SubscriptionRepository, userID string, plan *model.Plan, method model.PaymentMethod) (*model.Subscription, error) {
	current, err := subs.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := l.now()

	if current == nil {
		sub := &model.Subscription{
			UserID: userID,
			PlanID: plan.ID,
			Plan:   plan,
		}
		l.fill(sub, plan, method, now)

		if err := subs.Create(ctx, sub); err != nil {
			return nil, err
		}

		l.logger.Info("Subscription created",
			zap.String("user_id", userID),
			zap.String("subscription_id", sub.ID.String()),
			zap.String("plan_type", string(plan.Type)))
		return sub, nil
	}

	if current.Plan != nil && current.Plan.Type == plan.Type {
		return nil, domainErrors.NewPackageAlreadyActiveError(current.Plan.Name, current.Plan.Price, current.EndDate)
	}

	previous := current.PlanID
	current.PlanID = plan.ID
	current.Plan = plan
	l.fill(current, plan, method, now)

	if err := subs.Update(ctx, current); err != nil {
		return nil, err
	}

	l.logger.Info("Subscription changed plan",
		zap.String("user_id", userID),
		zap.String("subscription_id", current.ID.String()),
		zap.String("previous_plan_id", previous.String()),
		zap.String("plan_type", string(plan.Type)))
	return current, nil
}

func (l *SubscriptionLedger) fill(sub *model.Subscription, plan *model.Plan, method model.PaymentMethod, now time.Time) {
	sub.Status = model.SubscriptionStatusActive
	sub.StartDate = now
	sub.EndDate = now.Add(l.term)
	sub.Amount = plan.Price
	sub.PaymentMethod = method
	sub.Notes = fmt.Sprintf("%s plan, %d-day term", plan.Name, int(l.term/(24*time.Hour)))
	sub.UpdatedAt = now
}
