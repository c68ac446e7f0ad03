package http

import (
	"context"

	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
)

// PurchaseUsecase is the service behind the billing endpoints
type PurchaseUsecase interface {
	Purchase(ctx context.Context, req usecase.PurchaseRequest) (*usecase.PurchaseResult, error)
	ListPlans(ctx context.Context) ([]*usecase.PlanSummary, error)
	CurrentSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	ListPayments(ctx context.Context, userID string, limit int) ([]*model.Payment, error)
}
