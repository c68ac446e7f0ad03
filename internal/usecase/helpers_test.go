package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/adcampaign-billing/internal/adapter/repository/memory"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/catalog"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	"go.uber.org/zap"
)

// MockGateway is a mock implementation of provider.Gateway
type MockGateway struct {
	mock.Mock
	method model.PaymentMethod
}

func NewMockGateway(method model.PaymentMethod) *MockGateway {
	return &MockGateway{method: method}
}

func (m *MockGateway) Method() model.PaymentMethod {
	return m.method
}

func (m *MockGateway) AttemptCharge(ctx context.Context, plan *model.Plan, data provider.PaymentData) (*provider.Outcome, error) {
	args := m.Called(ctx, plan, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Outcome), args.Error(1)
}

// MockEventPublisher is a mock implementation of usecase.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishPurchaseCompleted(ctx context.Context, event *usecase.PurchaseCompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type testEnv struct {
	store    *memory.Store
	resolver *usecase.PlanResolver
	ledger   *usecase.SubscriptionLedger
	service  *usecase.PurchaseService
}

func newTestEnv(t *testing.T, cfg usecase.PurchaseServiceConfig, gateways ...provider.Gateway) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	plans, err := catalog.Default()
	require.NoError(t, err)

	store := memory.NewStore()
	resolver := usecase.NewPlanResolver(store.Plans(), plans, "USD", logger)
	ledger := usecase.NewSubscriptionLedger(usecase.DefaultSubscriptionTerm, logger)

	return &testEnv{
		store:    store,
		resolver: resolver,
		ledger:   ledger,
		service:  usecase.NewPurchaseService(store, resolver, ledger, provider.NewRegistry(gateways...), cfg, logger),
	}
}

func (e *testEnv) payments(t *testing.T, userID string) []*model.Payment {
	t.Helper()
	payments, err := e.store.Payments().ListByUserID(context.Background(), userID, 0)
	require.NoError(t, err)
	return payments
}
