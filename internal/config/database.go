package config

import (
	"fmt"
	"time"
)

const (
	DriverPostgres = "postgres"
	// DriverSQLite stores everything in the file named by Path.
	DriverSQLite = "sqlite"
	// DriverMemory keeps all state in process; intended for local runs.
	DriverMemory = "memory"
)

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the SQLite database file, or a file: URI.
	Path string `mapstructure:"path"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// Queries slower than this are logged at warn level.
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
