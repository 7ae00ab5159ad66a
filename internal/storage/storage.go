// Package storage provides the key-value drivers a cart can be persisted to.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

var (
	_ cart.Storage = (*Memory)(nil)
	_ cart.Storage = (*PgStore)(nil)
	_ cart.Storage = (*RedisStore)(nil)
)

// Backends holds the connections a driver may need. Only the one matching the driver is used.
type Backends struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// New returns the storage for driver.
func New(driver string, backends Backends, logger *slog.Logger) (cart.Storage, error) {
	switch driver {
	case DriverMemory:
		logger.Warn("Using in-memory cart storage, the cart will not survive a restart")
		return NewMemory(), nil
	case DriverPostgres:
		if backends.Pool == nil {
			return nil, fmt.Errorf("storage driver %q requires a database pool", driver)
		}
		return NewPgStore(backends.Pool), nil
	case DriverRedis:
		if backends.Redis == nil {
			return nil, fmt.Errorf("storage driver %q requires a redis client", driver)
		}
		return NewRedisStore(backends.Redis), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
