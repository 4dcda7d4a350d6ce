package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "gigboard", cfg.Database.Database)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)

		assert.Equal(t, "jobs.lifecycle", cfg.RabbitMQ.Exchange.Name)
		assert.Equal(t, "topic", cfg.RabbitMQ.Exchange.Type)
		assert.True(t, cfg.RabbitMQ.Exchange.Durable)
		assert.Equal(t, 3, cfg.RabbitMQ.Publish.RetryAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.RabbitMQ.Publish.RetryInterval)
		assert.Equal(t, 2.0, cfg.RabbitMQ.Publish.BackoffMultiplier)

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "console", cfg.Logging.Format)

		assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
		assert.Equal(t, 200, cfg.Sweeper.BatchSize)
		assert.True(t, cfg.Sweeper.PruneRetired)
		assert.Equal(t, 30*time.Second, cfg.Sweeper.ShutdownTimeout)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("testdata/does_not_exist.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load("testdata/malformed.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	return cfg
}

func TestValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "server port out of range",
			mutate:  func(cfg *Config) { cfg.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "missing database host",
			mutate:  func(cfg *Config) { cfg.Database.Host = "" },
			wantErr: "database host is required",
		},
		{
			name:    "database port out of range",
			mutate:  func(cfg *Config) { cfg.Database.Port = 70000 },
			wantErr: "invalid database port",
		},
		{
			name:    "missing database name",
			mutate:  func(cfg *Config) { cfg.Database.Database = "" },
			wantErr: "database name is required",
		},
		{
			name:    "missing rabbitmq host",
			mutate:  func(cfg *Config) { cfg.RabbitMQ.Host = "" },
			wantErr: "rabbitmq host is required",
		},
		{
			name:    "missing exchange name",
			mutate:  func(cfg *Config) { cfg.RabbitMQ.Exchange.Name = "" },
			wantErr: "rabbitmq exchange name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSweeperConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "zero interval",
			mutate:  func(cfg *Config) { cfg.Sweeper.Interval = 0 },
			wantErr: "sweeper interval",
		},
		{
			name:    "zero batch size",
			mutate:  func(cfg *Config) { cfg.Sweeper.BatchSize = 0 },
			wantErr: "sweeper batch_size",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(cfg *Config) { cfg.Sweeper.ShutdownTimeout = 0 },
			wantErr: "sweeper shutdown_timeout",
		},
		{
			name:    "shared validation still applies",
			mutate:  func(cfg *Config) { cfg.Database.Host = "" },
			wantErr: "database host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.ValidateSweeperConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
