package storage

import (
	"context"
	"errors"
	"fmt"

	carterrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getQuery = `SELECT value FROM cart_storage WHERE key = $1`
	setQuery = `INSERT INTO cart_storage (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// PgStore keeps values in the cart_storage table.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PgStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRow(ctx, getQuery, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", carterrors.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

func (p *PgStore) Set(ctx context.Context, key, value string) error {
	if _, err := p.db.Exec(ctx, setQuery, key, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}
