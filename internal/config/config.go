// Package config holds the configuration of the cart and notifier services.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/abgdnv/shopcart/pkg/config/configloader"
)

var (
	_ configloader.Validator = (*Config)(nil)
	_ configloader.Validator = (*NotifierConfig)(nil)
)

// Config is the configuration of the cart service.
type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GrpcServer config.GrpcServerConfig `koanf:"grpc"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Catalog    config.CatalogConfig    `koanf:"catalog"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Storage    StorageConfig           `koanf:"storage"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
}

// StorageConfig selects the cart storage driver. Only the section of the selected driver
// is validated.
type StorageConfig struct {
	Driver   string                `koanf:"driver"`
	Key      string                `koanf:"key"`
	Postgres config.DatabaseConfig `koanf:"postgres"`
	Redis    config.RedisConfig    `koanf:"redis"`
}

func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  key: %s\n", c.Key))
	switch c.Driver {
	case "postgres":
		b.WriteString(c.Postgres.String())
	case "redis":
		b.WriteString(c.Redis.String())
	}
	return b.String()
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "memory":
		return nil
	case "postgres":
		return c.Postgres.Validate()
	case "redis":
		return c.Redis.Validate()
	case "":
		return fmt.Errorf("storage driver is not configured")
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GrpcServer.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Storage.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.GrpcServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return nil
}
