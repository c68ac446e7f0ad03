package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/adcampaign-billing/internal/adapter/repository/memory"
	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	"go.uber.org/zap"
)

type recordedPool struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
}

func (p *recordedPool) SetMaxOpenConns(n int)              { p.maxOpen = n }
func (p *recordedPool) SetMaxIdleConns(n int)              { p.maxIdle = n }
func (p *recordedPool) SetConnMaxLifetime(d time.Duration) { p.maxLifetime = d }
func (p *recordedPool) SetConnMaxIdleTime(d time.Duration) { p.maxIdleTime = d }

func TestConfigurePool(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want recordedPool
	}{
		{
			name: "postgres uses configured sizes",
			cfg: config.DatabaseConfig{
				Driver:          config.DriverPostgres,
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
				ConnMaxIdleTime: 5 * time.Minute,
			},
			want: recordedPool{maxOpen: 20, maxIdle: 5, maxLifetime: 30 * time.Minute, maxIdleTime: 5 * time.Minute},
		},
		{
			name: "idle capped at open",
			cfg:  config.DatabaseConfig{Driver: config.DriverPostgres, MaxOpenConns: 4, MaxIdleConns: 10},
			want: recordedPool{maxOpen: 4, maxIdle: 4},
		},
		{
			name: "sqlite keeps one connection",
			cfg: config.DatabaseConfig{
				Driver:          config.DriverSQLite,
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				ConnMaxLifetime: time.Minute,
			},
			want: recordedPool{maxOpen: 1, maxIdle: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p recordedPool
			configurePool(&tt.cfg, &p)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestOpenStore(t *testing.T) {
	logger := zap.NewNop()

	t.Run("sqlite file is migrated and reachable", func(t *testing.T) {
		cfg := &config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "billing.db"),
		}

		store, closeStore, err := OpenStore(cfg, logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, closeStore()) }()

		pinger, ok := store.(interface{ Ping(context.Context) error })
		require.True(t, ok)
		assert.NoError(t, pinger.Ping(context.Background()))

		plans, err := store.Plans().ListActive(context.Background())
		require.NoError(t, err)
		assert.Empty(t, plans)
	})

	t.Run("memory driver", func(t *testing.T) {
		store, closeStore, err := OpenStore(&config.DatabaseConfig{Driver: config.DriverMemory}, logger)
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, store)
		assert.NoError(t, closeStore())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := OpenStore(&config.DatabaseConfig{Driver: "mysql"}, logger)
		assert.Error(t, err)
	})
}
