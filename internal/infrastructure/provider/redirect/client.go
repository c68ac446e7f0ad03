package redirect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"go.uber.org/zap"
)

const checkoutPath = "/v1/checkouts"

// Client talks to a hosted-checkout provider. A checkout is created with one
// POST; the user completes it on the provider's page.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

type checkoutRequest struct {
	Reference   string            `json:"reference"`
	Method      string            `json:"method"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	ReturnURL   string            `json:"return_url,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

type checkoutResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient creates a client for the provider at baseURL. Requests are
// bounded by the caller's context; the HTTP client timeout is a backstop.
func NewClient(name, baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger.With(zap.String("provider", name)),
	}
}

// CreateCheckout opens a checkout session.
// 2xx succeeds with the checkout URL, 4xx fails with the provider's message,
// anything else is returned as an error.
func (c *Client) CreateCheckout(ctx context.Context, req *checkoutRequest) (*provider.Outcome, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
			Err:     err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutPath, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
			Err:     err,
		}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Reference)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("Checkout request failed", zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: fmt.Sprintf("%s API request failed", c.name),
			Details: err.Error(),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
			Err:     err,
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		var errResp errorResponse
		_ = json.Unmarshal(respBody, &errResp)

		c.logger.Info("Checkout rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", errResp.Code),
			zap.String("message", errResp.Message))

		reason := errResp.Message
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return provider.Failed(reason), nil
	default:
		c.logger.Error("Checkout failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)))
		return nil, &provider.ProviderError{
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: fmt.Sprintf("%s API returned an error", c.name),
			Details: string(respBody),
		}
	}

	var result checkoutResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: err.Error(),
			Err:     err,
		}
	}
	if result.ID == "" || result.CheckoutURL == "" {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Checkout response is missing id or checkout_url",
			Details: string(respBody),
		}
	}

	c.logger.Info("Checkout created",
		zap.String("reference", req.Reference),
		zap.String("checkout_id", result.ID))

	return provider.Succeeded(result.ID, result.CheckoutURL), nil
}
