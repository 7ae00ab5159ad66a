package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	carterrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PgStoreSuite runs the storage contract against a real PostgreSQL.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	connStr     string
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("cart_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	s.connStr, err = s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, s.connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		if err = s.dbPool.Ping(s.ctx); err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	require.NoError(s.T(), Migrate(s.connStr), "Failed to apply migrations")
	s.store = NewPgStore(s.dbPool)
}

func (s *PgStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE cart_storage")
	require.NoError(s.T(), err, "Failed to truncate cart_storage table")
}

func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) TestContract() {
	testStorageContract(s.T(), s.store)
}

func (s *PgStoreSuite) TestMigrateIsIdempotent() {
	require.NoError(s.T(), Migrate(s.connStr))
}

func (s *PgStoreSuite) TestUpsertTouchesUpdatedAt() {
	// given
	require.NoError(s.T(), s.store.Set(s.ctx, "k", "v1"))
	var first time.Time
	require.NoError(s.T(), s.dbPool.QueryRow(s.ctx, "SELECT updated_at FROM cart_storage WHERE key = 'k'").Scan(&first))
	time.Sleep(10 * time.Millisecond)

	// when
	require.NoError(s.T(), s.store.Set(s.ctx, "k", "v2"))

	// then
	var second time.Time
	var count int
	require.NoError(s.T(), s.dbPool.QueryRow(s.ctx, "SELECT updated_at FROM cart_storage WHERE key = 'k'").Scan(&second))
	require.NoError(s.T(), s.dbPool.QueryRow(s.ctx, "SELECT count(*) FROM cart_storage").Scan(&count))
	s.True(second.After(first))
	s.Equal(1, count)
}

func (s *PgStoreSuite) TestGetAfterTruncate() {
	_, err := s.store.Get(s.ctx, "k")
	s.ErrorIs(err, carterrors.ErrKeyNotFound)
}
