package config

import "time"

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	// Currency is the ISO code every plan price is charged in.
	Currency string `mapstructure:"currency"`
	// GatewayTimeout bounds a single charge attempt.
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout"`
	// SubscriptionTerm is the length of every purchased term.
	SubscriptionTerm time.Duration `mapstructure:"subscription_term"`
	// PlanCatalogPath optionally replaces the built-in plan templates.
	PlanCatalogPath string `mapstructure:"plan_catalog_path"`
	// EncryptionKey is a 64 hex char AES-256 key for sensitive payment data.
	// When empty, sensitive values are masked instead.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// GatewaysConfig configures one adapter per payment method.
// An adapter without credentials is not registered.
type GatewaysConfig struct {
	Card        StripeConfig   `mapstructure:"card"`
	Wallet      RedirectConfig `mapstructure:"wallet"`
	MobileMoney RedirectConfig `mapstructure:"mobile_money"`
	Crypto      RedirectConfig `mapstructure:"crypto"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

// RedirectConfig describes a hosted-checkout provider.
type RedirectConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	// ReturnURL is where the provider sends the user after checkout.
	ReturnURL string `mapstructure:"return_url"`
}
