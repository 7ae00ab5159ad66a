package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Memory_Contract(t *testing.T) {
	testStorageContract(t, NewMemory())
}

func Test_Memory_ConcurrentAccess(t *testing.T) {
	// given
	store := NewMemory()
	ctx := context.Background()
	var wg sync.WaitGroup

	// when
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			_ = store.Set(ctx, key, fmt.Sprint(i))
			_, _ = store.Get(ctx, key)
		}()
	}
	wg.Wait()

	// then
	for i := range 5 {
		_, err := store.Get(ctx, fmt.Sprintf("k%d", i))
		require.NoError(t, err)
	}
}

func Test_New(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	testCases := []struct {
		name      string
		driver    string
		expectErr bool
	}{
		{name: "memory", driver: DriverMemory},
		{name: "postgres without pool", driver: DriverPostgres, expectErr: true},
		{name: "redis without client", driver: DriverRedis, expectErr: true},
		{name: "unknown driver", driver: "etcd", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := New(tc.driver, Backends{}, logger)
			if tc.expectErr {
				require.Error(t, err)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, &Memory{}, store)
		})
	}
}
