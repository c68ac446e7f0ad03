package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
)

// Failure reasons produced without a provider message.
const (
	ReasonValidation = "validation"
	ReasonTimeout    = "timeout"
)

// Gateway charges a plan through one payment method.
//
// A declined or malformed charge is reported as a failed Outcome. The error
// return is reserved for infrastructure problems such as an unreachable
// provider or a 5xx response. Implementations must not retry.
type Gateway interface {
	Method() model.PaymentMethod
	AttemptCharge(ctx context.Context, plan *model.Plan, data PaymentData) (*Outcome, error)
}

// PaymentData is the method-specific payload supplied by the caller
type PaymentData map[string]interface{}

// Outcome is the tagged result of a charge attempt: either Success with a
// transaction ID (and a redirect URL for hosted checkouts) or a failure Reason.
type Outcome struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func Succeeded(transactionID, redirectURL string) *Outcome {
	return &Outcome{Success: true, TransactionID: transactionID, RedirectURL: redirectURL}
}

func Failed(reason string) *Outcome {
	return &Outcome{Reason: reason}
}

var validate = validator.New()

// Decode copies data into the struct pointed to by out and validates it
// with its `validate` tags.
func (d PaymentData) Decode(out interface{}) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode payment data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode payment data: %w", err)
	}
	return validate.Struct(out)
}

// MinorUnits converts a price to the smallest currency unit, e.g. cents.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

// ProviderError reports an infrastructure failure talking to a provider
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
