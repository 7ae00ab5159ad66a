package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig configures the redis storage driver.
// URL wins over Addr/Password/DB when both are set.
type RedisConfig struct {
	URL      string        `koanf:"url"`
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Timeout  time.Duration `koanf:"timeout"`
}

// String returns a string representation of the redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  url: %s\n", MaskURL(c.URL)))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if c.URL == "" && c.Addr == "" {
		return fmt.Errorf("redis url or addr must be configured")
	}
	if c.URL != "" && !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://") {
		return fmt.Errorf("redis URL must start with 'redis://' or 'rediss://'")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis timeout is not configured")
	}
	return nil
}
