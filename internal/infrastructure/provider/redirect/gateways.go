package redirect

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"go.uber.org/zap"
)

// Checkouts are reported successful as soon as the provider accepts them.
// Confirmation arrives out of band.

type walletData struct {
	ReturnURL string `json:"return_url" validate:"required,url"`
}

type mobileMoneyData struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	Operator    string `json:"operator" validate:"required"`
}

type cryptoData struct {
	Currency string `json:"currency" validate:"required,oneof=BTC ETH USDT USDC"`
}

// WalletProvider redirects the user to a wallet checkout
type WalletProvider struct {
	client *Client
	logger *zap.Logger
}

func NewWalletProvider(client *Client, logger *zap.Logger) *WalletProvider {
	return &WalletProvider{client: client, logger: logger}
}

func (p *WalletProvider) Method() model.PaymentMethod {
	return model.PaymentMethodWallet
}

func (p *WalletProvider) AttemptCharge(ctx context.Context, plan *model.Plan, data provider.PaymentData) (*provider.Outcome, error) {
	var wallet walletData
	if err := data.Decode(&wallet); err != nil {
		p.logger.Info("WalletProvider: Invalid payment data", zap.Error(err))
		return provider.Failed(provider.ReasonValidation), nil
	}

	req := newCheckoutRequest(p.Method(), plan, wallet.ReturnURL)
	return p.client.CreateCheckout(ctx, req)
}

// MobileMoneyProvider pushes a payment prompt to the user's phone
type MobileMoneyProvider struct {
	client    *Client
	returnURL string
	logger    *zap.Logger
}

func NewMobileMoneyProvider(client *Client, returnURL string, logger *zap.Logger) *MobileMoneyProvider {
	return &MobileMoneyProvider{client: client, returnURL: returnURL, logger: logger}
}

func (p *MobileMoneyProvider) Method() model.PaymentMethod {
	return model.PaymentMethodMobileMoney
}

func (p *MobileMoneyProvider) AttemptCharge(ctx context.Context, plan *model.Plan, data provider.PaymentData) (*provider.Outcome, error) {
	var mobile mobileMoneyData
	if err := data.Decode(&mobile); err != nil {
		p.logger.Info("MobileMoneyProvider: Invalid payment data", zap.Error(err))
		return provider.Failed(provider.ReasonValidation), nil
	}

	req := newCheckoutRequest(p.Method(), plan, p.returnURL)
	req.Details = map[string]string{
		"phone_number": mobile.PhoneNumber,
		"operator":     strings.ToLower(mobile.Operator),
	}
	return p.client.CreateCheckout(ctx, req)
}

// CryptoProvider opens a crypto invoice priced in the plan currency
type CryptoProvider struct {
	client    *Client
	returnURL string
	logger    *zap.Logger
}

func NewCryptoProvider(client *Client, returnURL string, logger *zap.Logger) *CryptoProvider {
	return &CryptoProvider{client: client, returnURL: returnURL, logger: logger}
}

func (p *CryptoProvider) Method() model.PaymentMethod {
	return model.PaymentMethodCrypto
}

func (p *CryptoProvider) AttemptCharge(ctx context.Context, plan *model.Plan, data provider.PaymentData) (*provider.Outcome, error) {
	var crypto cryptoData
	if err := data.Decode(&crypto); err != nil {
		p.logger.Info("CryptoProvider: Invalid payment data", zap.Error(err))
		return provider.Failed(provider.ReasonValidation), nil
	}

	req := newCheckoutRequest(p.Method(), plan, p.returnURL)
	req.Details = map[string]string{"pay_currency": crypto.Currency}
	return p.client.CreateCheckout(ctx, req)
}

func newCheckoutRequest(method model.PaymentMethod, plan *model.Plan, returnURL string) *checkoutRequest {
	return &checkoutRequest{
		Reference:   uuid.NewString(),
		Method:      string(method),
		Amount:      provider.MinorUnits(plan.Price),
		Currency:    plan.Currency,
		Description: plan.Name + " plan",
		ReturnURL:   returnURL,
	}
}
