package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"go.uber.org/zap"
)

// PaymentIntentCreator is the subset of the Stripe client used for charges.
type PaymentIntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// CardProvider charges cards through Stripe PaymentIntents, confirming the
// intent in the same call.
type CardProvider struct {
	intents PaymentIntentCreator
	logger  *zap.Logger
}

type cardData struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
	ReturnURL       string `json:"return_url" validate:"omitempty,url"`
}

// NewCardProvider creates a card provider backed by the Stripe API
func NewCardProvider(secretKey string, logger *zap.Logger) *CardProvider {
	return NewCardProviderWithClient(client.New(secretKey, nil).PaymentIntents, logger)
}

func NewCardProviderWithClient(intents PaymentIntentCreator, logger *zap.Logger) *CardProvider {
	return &CardProvider{
		intents: intents,
		logger:  logger,
	}
}

func (s *CardProvider) Method() model.PaymentMethod {
	return model.PaymentMethodCard
}

// AttemptCharge creates and confirms a PaymentIntent for the plan price
func (s *CardProvider) AttemptCharge(ctx context.Context, plan *model.Plan, data provider.PaymentData) (*provider.Outcome, error) {
	var card cardData
	if err := data.Decode(&card); err != nil {
		s.logger.Info("StripeProvider: Invalid card payment data", zap.Error(err))
		return provider.Failed(provider.ReasonValidation), nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(provider.MinorUnits(plan.Price)),
		Currency:           stripe.String(strings.ToLower(plan.Currency)),
		PaymentMethod:      stripe.String(card.PaymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(plan.Name + " plan"),
	}
	if card.ReturnURL != "" {
		params.ReturnURL = stripe.String(card.ReturnURL)
	}
	params.AddMetadata("plan_id", plan.ID.String())
	params.AddMetadata("plan_type", string(plan.Type))
	params.Context = ctx

	pi, err := s.intents.New(params)
	if err != nil {
		return s.classifyError(ctx, err)
	}

	s.logger.Info("StripeProvider: PaymentIntent created",
		zap.String("payment_intent_id", pi.ID),
		zap.String("status", string(pi.Status)))

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		return provider.Succeeded(pi.ID, ""), nil
	case stripe.PaymentIntentStatusRequiresAction:
		if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil && pi.NextAction.RedirectToURL.URL != "" {
			return provider.Succeeded(pi.ID, pi.NextAction.RedirectToURL.URL), nil
		}
		return provider.Failed("card requires additional authentication"), nil
	default:
		return provider.Failed("payment was not completed: " + string(pi.Status)), nil
	}
}

// classifyError separates declines and rejected requests, which are final
// for this attempt, from transport and server-side failures.
func (s *CardProvider) classifyError(ctx context.Context, err error) (*provider.Outcome, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeCard ||
			(stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 && stripeErr.HTTPStatusCode != 429) {
			s.logger.Info("StripeProvider: Charge declined",
				zap.String("type", string(stripeErr.Type)),
				zap.String("code", string(stripeErr.Code)),
				zap.String("message", stripeErr.Msg))
			return provider.Failed(declineReason(stripeErr)), nil
		}
	}

	s.logger.Error("StripeProvider: PaymentIntent request failed", zap.Error(err))
	return nil, &provider.ProviderError{
		Code:    "API_ERROR",
		Message: "Stripe API request failed",
		Details: err.Error(),
		Err:     err,
	}
}

// declineReason prefers Stripe's customer-facing message and falls back to
// the error code.
func declineReason(err *stripe.Error) string {
	switch {
	case err.Msg != "":
		return err.Msg
	case err.Code != "":
		return string(err.Code)
	default:
		return "card was declined"
	}
}
