package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"
)

const defaultHalfOpenRequests = 3

// newCircuitBreaker trips on too many consecutive failures or a failure rate above the
// configured percentage. Only transient errors count as failures, so a 404 from the catalog
// never opens the circuit.
func newCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	halfOpen := cfg.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = defaultHalfOpenRequests
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			return !isTransient(err)
		},
	}
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

// newBackOff returns the exponential schedule used between attempts.
func newBackOff(cfg config.RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	if cfg.MaxBackoff > 0 {
		b.MaxInterval = cfg.MaxBackoff
	}
	return b
}

// isTransient reports whether a failed attempt is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, ErrMalformedBody) || errors.Is(err, errInvalidRequest) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	// network errors and per-attempt timeouts
	return true
}
