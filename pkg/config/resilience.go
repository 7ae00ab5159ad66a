package config

import (
	"fmt"
	"strings"
	"time"
)

// ResilienceConfig tunes retries and circuit breaking for outbound HTTP calls.
type ResilienceConfig struct {
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type RetryConfig struct {
	// MaxAttempts counts the first call, so 1 disables retries.
	MaxAttempts    uint          `koanf:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
	MaxBackoff     time.Duration `koanf:"maxbackoff"`
}

type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
	HalfOpenRequests    uint32        `koanf:"halfopenrequests"`
}

// String returns a string representation of the ResilienceConfig.
func (c *ResilienceConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Retry ---\n")
	b.WriteString(fmt.Sprintf("  maxattempts: %d\n", c.Retry.MaxAttempts))
	b.WriteString(fmt.Sprintf("  initialbackoff: %v\n", c.Retry.InitialBackoff))
	b.WriteString(fmt.Sprintf("  maxbackoff: %v\n", c.Retry.MaxBackoff))
	b.WriteString("\n--- Circuit Breaker ---\n")
	b.WriteString(fmt.Sprintf("  consecutivefailures: %d\n", c.CircuitBreaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  errorratepercent: %d\n", c.CircuitBreaker.ErrorRatePercent))
	b.WriteString(fmt.Sprintf("  opentimeout: %v\n", c.CircuitBreaker.OpenTimeout))
	b.WriteString(fmt.Sprintf("  halfopenrequests: %d\n", c.CircuitBreaker.HalfOpenRequests))
	return b.String()
}

func (c *ResilienceConfig) Validate() error {
	if c.Retry.MaxAttempts == 0 {
		return fmt.Errorf("retry.maxattempts must be greater than 0")
	}
	if c.Retry.InitialBackoff <= 0 {
		return fmt.Errorf("retry.initialbackoff must be greater than 0")
	}
	if c.Retry.MaxBackoff != 0 && c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		return fmt.Errorf("retry.maxbackoff must not be lower than retry.initialbackoff")
	}
	if c.CircuitBreaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("circuitbreaker.consecutivefailures must be greater than 0")
	}
	if c.CircuitBreaker.ErrorRatePercent < 0 || c.CircuitBreaker.ErrorRatePercent > 100 {
		return fmt.Errorf("circuitbreaker.errorratepercent must be between 0 and 100")
	}
	if c.CircuitBreaker.OpenTimeout <= 0 {
		return fmt.Errorf("circuitbreaker.opentimeout must be greater than 0")
	}
	return nil
}
