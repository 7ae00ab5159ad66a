package storage

import (
	"context"
	"testing"

	"github.com/abgdnv/shopcart/internal/cart"
	carterrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const skipIntegrationTests = "CART_SKIP_INTEGRATION_TESTS"

// testStorageContract checks the behaviour every cart.Storage driver must share.
func testStorageContract(t *testing.T, store cart.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		_, err := store.Get(ctx, "absent:"+gofakeit.UUID())
		require.ErrorIs(t, err, carterrors.ErrKeyNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		// given
		key := "cart:" + gofakeit.UUID()
		value := `[{"id":1,"title":"Tênis","price":"139.90","image":"a.png","amount":2}]`

		// when
		err := store.Set(ctx, key, value)

		// then
		require.NoError(t, err)
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		// given
		key := "cart:" + gofakeit.UUID()
		require.NoError(t, store.Set(ctx, key, `[{"id":1,"amount":1}]`))

		// when
		err := store.Set(ctx, key, `[]`)

		// then
		require.NoError(t, err)
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `[]`, got)
	})

	t.Run("empty value is kept", func(t *testing.T) {
		key := "cart:" + gofakeit.UUID()
		require.NoError(t, store.Set(ctx, key, ""))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("keys are independent", func(t *testing.T) {
		first, second := "cart:"+gofakeit.UUID(), "cart:"+gofakeit.UUID()
		require.NoError(t, store.Set(ctx, first, "a"))
		require.NoError(t, store.Set(ctx, second, "b"))

		got, err := store.Get(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, "a", got)
	})
}
