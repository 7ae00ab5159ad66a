package config

import (
	"testing"
	"time"

	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var c Config
	c.HTTPServer.Port = 8080
	c.HTTPServer.Timeout.Read = 5 * time.Second
	c.HTTPServer.Timeout.Write = 10 * time.Second
	c.HTTPServer.Timeout.Idle = 60 * time.Second
	c.HTTPServer.Timeout.ReadHeader = 2 * time.Second
	c.Log.Level = "info"
	c.Shutdown.Timeout = 10 * time.Second
	c.Catalog = config.CatalogConfig{URL: "http://localhost:3333", Timeout: time.Second}
	c.Resilience = config.ResilienceConfig{
		Retry:          config.RetryConfig{MaxAttempts: 3, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second},
		CircuitBreaker: config.CircuitBreakerConfig{ConsecutiveFailures: 5, ErrorRatePercent: 50, OpenTimeout: 10 * time.Second},
	}
	c.Storage = StorageConfig{Driver: "memory"}
	return c
}

func Test_Config_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(c *Config)
		expectErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:      "missing storage driver",
			mutate:    func(c *Config) { c.Storage.Driver = "" },
			expectErr: "storage driver is not configured",
		},
		{
			name:      "unknown storage driver",
			mutate:    func(c *Config) { c.Storage.Driver = "etcd" },
			expectErr: "unknown storage driver",
		},
		{
			name:      "postgres driver without url",
			mutate:    func(c *Config) { c.Storage.Driver = "postgres" },
			expectErr: "database URL is not configured",
		},
		{
			name: "postgres driver",
			mutate: func(c *Config) {
				c.Storage.Driver = "postgres"
				c.Storage.Postgres = config.DatabaseConfig{URL: "postgres://u:p@localhost/cart", Timeout: time.Second}
			},
		},
		{
			name: "redis driver",
			mutate: func(c *Config) {
				c.Storage.Driver = "redis"
				c.Storage.Redis = config.RedisConfig{Addr: "localhost:6379", Timeout: time.Second}
			},
		},
		{
			name: "redis section ignored for memory driver",
			mutate: func(c *Config) {
				c.Storage.Redis = config.RedisConfig{URL: "http://wrong"}
			},
		},
		{
			name:      "catalog url missing",
			mutate:    func(c *Config) { c.Catalog.URL = "" },
			expectErr: "catalog URL is not configured",
		},
		{
			name:      "retry attempts zero",
			mutate:    func(c *Config) { c.Resilience.Retry.MaxAttempts = 0 },
			expectErr: "retry.maxattempts",
		},
		{
			name:      "nats enabled without url",
			mutate:    func(c *Config) { c.Nats.Enabled = true },
			expectErr: "NATS URL is not configured",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Log.Level = "verbose" },
			expectErr: "unknown log level",
		},
		{
			name:      "grpc enabled without port",
			mutate:    func(c *Config) { c.GrpcServer.Enabled = true },
			expectErr: "gRPC server is enabled",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			c := validConfig()
			tc.mutate(&c)

			// when
			err := c.Validate()

			// then
			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_Config_String_MasksCredentials(t *testing.T) {
	c := validConfig()
	c.Storage.Driver = "postgres"
	c.Storage.Postgres.URL = "postgres://user:secret@db:5432/cart"

	s := c.String()

	assert.NotContains(t, s, "secret")
	assert.Contains(t, s, "****@db:5432/cart")
}

func Test_NotifierConfig_Validate(t *testing.T) {
	valid := func() NotifierConfig {
		return NotifierConfig{
			Log:      config.LogConfig{Level: "debug"},
			Nats:     config.NATSConfig{Enabled: true, Url: "nats://localhost:4222", Timeout: time.Second, Stream: "CART"},
			Shutdown: config.ShutdownConfig{Timeout: time.Second},
			Subscriber: config.SubscriberConfig{
				Subject: "cart.notifications", Consumer: "notifier", Batch: 10,
				Timeout: time.Second, Interval: time.Second, Workers: 2,
			},
		}
	}

	t.Run("valid with probe defaults", func(t *testing.T) {
		c := valid()
		require.NoError(t, c.Validate())
		assert.Equal(t, "/tmp/ready", c.Probes.ReadinessFileName)
		assert.Equal(t, "/tmp/live", c.Probes.LivenessFileName)
	})

	t.Run("nats disabled", func(t *testing.T) {
		c := valid()
		c.Nats.Enabled = false
		require.ErrorContains(t, c.Validate(), "nats.enabled")
	})

	t.Run("no workers", func(t *testing.T) {
		c := valid()
		c.Subscriber.Workers = 0
		require.ErrorContains(t, c.Validate(), "workers")
	})
}
