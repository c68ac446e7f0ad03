package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"go.uber.org/zap"
)

// MockPaymentIntents is a mock implementation of PaymentIntentCreator
type MockPaymentIntents struct {
	mock.Mock
}

func (m *MockPaymentIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func starterPlan() *model.Plan {
	return &model.Plan{
		ID:       uuid.New(),
		Type:     model.PlanTypeStarter,
		Name:     "Starter",
		Price:    decimal.RequireFromString("29.90"),
		Currency: "USD",
	}
}

func TestCardProvider_AttemptCharge(t *testing.T) {
	data := provider.PaymentData{"payment_method_id": "pm_card_visa"}

	tests := []struct {
		name          string
		intent        *stripe.PaymentIntent
		err           error
		expected      *provider.Outcome
		expectedError bool
	}{
		{
			name:     "succeeded",
			intent:   &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusSucceeded},
			expected: provider.Succeeded("pi_1", ""),
		},
		{
			name:     "processing",
			intent:   &stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusProcessing},
			expected: provider.Succeeded("pi_2", ""),
		},
		{
			name: "requires redirect",
			intent: &stripe.PaymentIntent{
				ID:     "pi_3",
				Status: stripe.PaymentIntentStatusRequiresAction,
				NextAction: &stripe.PaymentIntentNextAction{
					RedirectToURL: &stripe.PaymentIntentNextActionRedirectToURL{URL: "https://hooks.stripe.com/3ds"},
				},
			},
			expected: provider.Succeeded("pi_3", "https://hooks.stripe.com/3ds"),
		},
		{
			name:     "requires payment method",
			intent:   &stripe.PaymentIntent{ID: "pi_4", Status: stripe.PaymentIntentStatusRequiresPaymentMethod},
			expected: provider.Failed("payment was not completed: requires_payment_method"),
		},
		{
			name: "card declined",
			err: &stripe.Error{
				Type:           stripe.ErrorTypeCard,
				Code:           stripe.ErrorCodeCardDeclined,
				Msg:            "Your card was declined.",
				HTTPStatusCode: 402,
			},
			expected: provider.Failed("Your card was declined."),
		},
		{
			name: "decline without message uses code",
			err: &stripe.Error{
				Type:           stripe.ErrorTypeCard,
				Code:           stripe.ErrorCodeExpiredCard,
				HTTPStatusCode: 402,
			},
			expected: provider.Failed("expired_card"),
		},
		{
			name:     "rejected request without message or code",
			err:      &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: 400},
			expected: provider.Failed("card was declined"),
		},
		{
			name: "stripe outage",
			err: &stripe.Error{
				Type:           stripe.ErrorTypeAPI,
				Msg:            "internal error",
				HTTPStatusCode: 500,
			},
			expectedError: true,
		},
		{
			name:          "network failure",
			err:           errors.New("dial tcp: connection refused"),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intents := new(MockPaymentIntents)
			intents.On("New", mock.MatchedBy(func(p *stripe.PaymentIntentParams) bool {
				return *p.Amount == 2990 &&
					*p.Currency == "usd" &&
					*p.PaymentMethod == "pm_card_visa" &&
					*p.Confirm &&
					p.Metadata["plan_type"] == "starter"
			})).Return(tt.intent, tt.err)

			gateway := NewCardProviderWithClient(intents, zap.NewNop())

			result, err := gateway.AttemptCharge(context.Background(), starterPlan(), data)

			if tt.expectedError {
				assert.Nil(t, result)
				var providerErr *provider.ProviderError
				assert.True(t, errors.As(err, &providerErr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
			intents.AssertExpectations(t)
		})
	}

	t.Run("missing payment method", func(t *testing.T) {
		intents := new(MockPaymentIntents)
		gateway := NewCardProviderWithClient(intents, zap.NewNop())

		result, err := gateway.AttemptCharge(context.Background(), starterPlan(), provider.PaymentData{})

		require.NoError(t, err)
		assert.Equal(t, provider.Failed(provider.ReasonValidation), result)
		intents.AssertNotCalled(t, "New", mock.Anything)
	})

	t.Run("cancelled context is returned as is", func(t *testing.T) {
		intents := new(MockPaymentIntents)
		intents.On("New", mock.Anything).Return(nil, errors.New("request canceled"))
		gateway := NewCardProviderWithClient(intents, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := gateway.AttemptCharge(ctx, starterPlan(), data)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCardProvider_Method(t *testing.T) {
	assert.Equal(t, model.PaymentMethodCard, NewCardProviderWithClient(new(MockPaymentIntents), zap.NewNop()).Method())
}
