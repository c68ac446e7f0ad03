package config

import (
	"fmt"
	"time"

	"github.com/wekeepgrowing/adcampaign-billing/pkg/config"
	"github.com/wekeepgrowing/adcampaign-billing/pkg/logger"
)

// ServiceName is the config file name and the environment variable prefix.
const ServiceName = "billing"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Gateways GatewaysConfig `mapstructure:"gateways"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	EventsChannel string `mapstructure:"events_channel"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":                     ServiceName,
		"service.environment":              "dev",
		"service.currency":                 "USD",
		"service.gateway_timeout":          "15s",
		"service.subscription_term":        "720h",
		"database.driver":                  "postgres",
		"database.host":                    "localhost",
		"database.port":                    5432,
		"database.name":                    "billing",
		"database.user":                    "postgres",
		"database.sslmode":                 "disable",
		"database.path":                    "billing.db",
		"database.max_open_conns":          20,
		"database.max_idle_conns":          5,
		"database.conn_max_lifetime":       "30m",
		"database.conn_max_idle_time":      "5m",
		"database.slow_threshold":          "200ms",
		"server.http.host":                 "0.0.0.0",
		"server.http.port":                 8080,
		"server.http.cors_origins":         []string{"*"},
		"server.grpc.host":                 "0.0.0.0",
		"server.grpc.port":                 9090,
		"log.level":                        "info",
		"log.format":                       "json",
		"log.output":                       "stdout",
		"redis.addr":                       "localhost:6379",
		"redis.events_channel":             "billing.purchases",
		"service.version":                  "dev",
		"service.plan_catalog_path":        "",
		"service.encryption_key":           "",
		"jwt.secret":                       "",
		"redis.enabled":                    false,
		"redis.password":                   "",
		"redis.db":                         0,
		"gateways.card.secret_key":         "",
		"gateways.wallet.base_url":         "",
		"gateways.wallet.api_key":          "",
		"gateways.wallet.return_url":       "",
		"gateways.mobile_money.base_url":   "",
		"gateways.mobile_money.api_key":    "",
		"gateways.mobile_money.return_url": "",
		"gateways.crypto.base_url":         "",
		"gateways.crypto.api_key":          "",
		"gateways.crypto.return_url":       "",
	}
}

// LoadConfig loads the billing configuration from file and environment.
func LoadConfig() (*Config, error) {
	src, err := config.Load(ServiceName, defaults())
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := src.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Service.GatewayTimeout <= 0 {
		return fmt.Errorf("service.gateway_timeout must be positive")
	}
	if c.Service.SubscriptionTerm < 24*time.Hour {
		return fmt.Errorf("service.subscription_term must be at least one day")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}
