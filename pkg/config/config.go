// Package config loads layered service configuration: a YAML file selected
// by environment, overridden by prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config gives read access to loaded settings.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string
	IsSet(key string) bool
	// Unmarshal decodes the whole configuration into out using mapstructure tags.
	Unmarshal(out interface{}) error
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool { return c.v.GetBool(key) }
func (c *viperConfig) GetStringSlice(key string) []string { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool { return c.v.IsSet(key) }

func (c *viperConfig) Unmarshal(out interface{}) error {
	return c.v.Unmarshal(out)
}

const configDir = "configs"

// Load reads configs/<APP_ENV>/<serviceName>.yaml (APP_ENV defaults to dev),
// falling back to configs/example. CONFIG_PATH replaces the directory.
// Environment variables prefixed with the upper-cased service name override
// file values, e.g. BILLING_DATABASE_HOST for database.host.
//
// defaults are applied before the file is read.
func Load(serviceName string, defaults map[string]interface{}) (Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Defaults and environment variables alone are a valid configuration.
	}

	// AutomaticEnv only affects Get; bind every known key so Unmarshal sees overrides too.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	return &viperConfig{v: v}, nil
}
