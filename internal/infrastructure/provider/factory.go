package provider

import (
	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/provider/redirect"
	stripeProvider "github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/provider/stripe"
	"go.uber.org/zap"
)

// Factory creates payment gateways from configuration
type Factory struct {
	config *config.GatewaysConfig
	logger *zap.Logger
}

// NewFactory creates a new gateway factory
func NewFactory(config *config.GatewaysConfig, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// Registry builds a registry holding every configured gateway.
// Methods without credentials are skipped and reported as unsupported.
func (f *Factory) Registry() *provider.Registry {
	var gateways []provider.Gateway

	if g := f.createCardProvider(); g != nil {
		gateways = append(gateways, g)
	}
	if c := f.redirectClient("wallet", f.config.Wallet); c != nil {
		gateways = append(gateways, redirect.NewWalletProvider(c, f.logger))
	}
	if c := f.redirectClient("mobile_money", f.config.MobileMoney); c != nil {
		gateways = append(gateways, redirect.NewMobileMoneyProvider(c, f.config.MobileMoney.ReturnURL, f.logger))
	}
	if c := f.redirectClient("crypto", f.config.Crypto); c != nil {
		gateways = append(gateways, redirect.NewCryptoProvider(c, f.config.Crypto.ReturnURL, f.logger))
	}

	registry := provider.NewRegistry(gateways...)

	methods := make([]string, 0, len(gateways))
	for _, m := range registry.Methods() {
		methods = append(methods, string(m))
	}
	f.logger.Info("Payment gateways configured", zap.Strings("methods", methods))

	return registry
}

// createCardProvider creates the Stripe card gateway
func (f *Factory) createCardProvider() provider.Gateway {
	if f.config.Card.SecretKey == "" {
		f.logger.Warn("Stripe secret key not configured, card payments disabled")
		return nil
	}
	return stripeProvider.NewCardProvider(f.config.Card.SecretKey, f.logger)
}

func (f *Factory) redirectClient(name string, cfg config.RedirectConfig) *redirect.Client {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		f.logger.Warn("Checkout provider not configured", zap.String("method", name))
		return nil
	}
	return redirect.NewClient(name, cfg.BaseURL, cfg.APIKey, f.logger)
}
