package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
)

const (
	DefaultPaymentsLimit = 10
	MaxPaymentsLimit     = 100
)

// PlanSummary is a purchasable package. PackageID is the plan ID for stored
// plans and the slug for catalog plans not yet stored.
type PlanSummary struct {
	PackageID           string             `json:"package_id"`
	Type                model.PlanType     `json:"type"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	Price               decimal.Decimal    `json:"price"`
	Currency            string             `json:"currency"`
	BillingCycle        model.BillingCycle `json:"billing_cycle"`
	Features            []string           `json:"features"`
	MaxAccounts         *int               `json:"max_accounts"`
	DailyBudgetCap      *decimal.Decimal   `json:"daily_budget_cap"`
	UnlimitedBudget     bool               `json:"unlimited_budget"`
	TeamCollaboration   bool               `json:"team_collaboration"`
	DedicatedConsultant bool               `json:"dedicated_consultant"`
}

func newPlanSummary(packageID string, p *model.Plan) *PlanSummary {
	return &PlanSummary{
		PackageID:           packageID,
		Type:                p.Type,
		Name:                p.Name,
		Description:         p.Description,
		Price:               p.Price,
		Currency:            p.Currency,
		BillingCycle:        p.BillingCycle,
		Features:            p.Features,
		MaxAccounts:         p.MaxAccounts,
		DailyBudgetCap:      p.DailyBudgetCap,
		UnlimitedBudget:     p.UnlimitedBudget,
		TeamCollaboration:   p.TeamCollaboration,
		DedicatedConsultant: p.DedicatedConsultant,
	}
}

// ListPlans returns the active stored plans followed by the catalog plans
// that have not been stored yet.
func (s *PurchaseService) ListPlans(ctx context.Context) ([]*PlanSummary, error) {
	plans, err := s.store.Plans().ListActive(ctx)
	if err != nil {
		return nil, s.unavailable("list plans", PurchaseRequest{}, err)
	}

	stored := make(map[model.PlanType]bool, len(plans))
	summaries := make([]*PlanSummary, 0, len(plans)+3)
	for _, p := range plans {
		stored[p.Type] = true
		summaries = append(summaries, newPlanSummary(p.ID.String(), p))
	}

	for _, tmpl := range s.resolver.Catalog().Templates() {
		if stored[tmpl.Type] {
			continue
		}
		// Retired well-known plans stay hidden.
		existing, err := s.store.Plans().GetByType(ctx, tmpl.Type)
		if err != nil {
			return nil, s.unavailable("list plans", PurchaseRequest{}, err)
		}
		if existing != nil {
			continue
		}
		summaries = append(summaries, newPlanSummary(string(tmpl.Type), tmpl.NewPlan(s.resolver.currency)))
	}

	return summaries, nil
}

// CurrentSubscription returns the user's active subscription, or nil
func (s *PurchaseService) CurrentSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	sub, err := s.store.Subscriptions().GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, s.unavailable("load active subscription", PurchaseRequest{UserID: userID}, err)
	}
	return sub, nil
}

// ListPayments returns the user's most recent payments. limit is clamped
// to 1..MaxPaymentsLimit; zero or less selects DefaultPaymentsLimit.
func (s *PurchaseService) ListPayments(ctx context.Context, userID string, limit int) ([]*model.Payment, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	switch {
	case limit <= 0:
		limit = DefaultPaymentsLimit
	case limit > MaxPaymentsLimit:
		limit = MaxPaymentsLimit
	}

	payments, err := s.store.Payments().ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, s.unavailable("list payments", PurchaseRequest{UserID: userID}, err)
	}
	return payments, nil
}
