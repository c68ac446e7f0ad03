package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	"go.uber.org/zap"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestPurchaseEventPublisher_PublishPurchaseCompleted(t *testing.T) {
	ctx := context.Background()
	event := &usecase.PurchaseCompletedEvent{UserID: "user-1", PaymentID: "payment-1"}

	t.Run("wraps event in envelope", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", ctx, "billing.purchases", Envelope{Type: EventPurchaseCompleted, Data: event}).Return(nil)

		p := NewPurchaseEventPublisher(pub, "billing.purchases", zap.NewNop())
		assert.NoError(t, p.PublishPurchaseCompleted(ctx, event))
		pub.AssertExpectations(t)
	})

	t.Run("returns publish error", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", ctx, "billing.purchases", mock.Anything).Return(errors.New("connection refused"))

		p := NewPurchaseEventPublisher(pub, "billing.purchases", zap.NewNop())
		assert.Error(t, p.PublishPurchaseCompleted(ctx, event))
	})
}
