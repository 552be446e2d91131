package resilience

import (
	"context"
	"time"
)

// FromRetryConfig builds a RetryConfig from config-file values. Zero values
// keep the defaults.
func FromRetryConfig(maxAttempts, initialBackoffMs, maxBackoffMs int, multiplier, jitterFraction float64) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	if multiplier > 0 {
		cfg.Multiplier = multiplier
	}
	if jitterFraction > 0 {
		cfg.JitterFraction = jitterFraction
	}
	return cfg
}

// FromCircuitConfig builds a CircuitBreakerConfig from config-file values.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}

// Policy combines retries with a per-key circuit breaker. The breaker wraps
// the whole retry loop, so one exhausted retry sequence counts as a single
// failure.
type Policy struct {
	Retry    RetryConfig
	Breakers *Breakers
}

// Call runs fn for key under p. A nil Breakers disables the breaker.
func Call[T any](ctx context.Context, p Policy, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	retried := func(ctx context.Context) (T, error) {
		return DoVal(ctx, p.Retry, fn)
	}
	if p.Breakers == nil {
		return retried(ctx)
	}
	return ExecuteVal(ctx, p.Breakers.Get(key), retried)
}
