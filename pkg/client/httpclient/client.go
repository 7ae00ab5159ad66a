// Package httpclient is a JSON-over-HTTP client with per-attempt timeouts, exponential retries
// and a circuit breaker, instrumented with OpenTelemetry.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 1 << 20

// ErrMalformedBody is returned when a 2xx response cannot be decoded.
var ErrMalformedBody = errors.New("malformed response body")

var errInvalidRequest = errors.New("invalid request")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	retry   config.RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a client named after its upstream. timeout bounds every single attempt.
func New(name string, timeout time.Duration, cfg config.ResilienceConfig, logger *slog.Logger) *Client {
	logger = logger.With("component", "httpclient", "upstream", name)
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newCircuitBreaker(name+"-cb", cfg.CircuitBreaker, logger),
		retry:   cfg.Retry,
		timeout: timeout,
		logger:  logger,
	}
}

// GetJSON performs a GET against url and decodes the JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// Get performs a GET against url and returns the body of a 2xx response.
// Transient failures are retried; an open circuit fails fast.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, url)
		})
		if err == nil {
			return body, nil
		}
		if !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		c.logger.DebugContext(ctx, "Transient upstream error", "url", url, "attempt", attempt, "error", err)
		return nil, err
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(newBackOff(c.retry)),
		backoff.WithMaxTries(c.retry.MaxAttempts),
	)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	return body, nil
}
