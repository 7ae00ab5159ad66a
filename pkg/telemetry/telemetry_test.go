package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewMeterProvider_ExposesInstruments(t *testing.T) {
	// given
	mp, handler, err := NewMeterProvider("cart-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	counter, err := mp.Meter("test").Int64Counter("cart_operations")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// when
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cart_operations_total")
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
