package storage

import (
	"context"
	"errors"
	"fmt"

	carterrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values as plain redis strings without expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", carterrors.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}
