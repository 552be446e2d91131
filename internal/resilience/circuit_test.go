package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFail = errors.New("fail")

func failing(context.Context) error { return errFail }
func passing(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for range 3 {
		_ = cb.Execute(context.Background(), failing)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(context.Background(), func(context.Context) error {
		t.Error("should not be called while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)
	require.NoError(t, cb.Execute(context.Background(), passing))
	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Second,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.nowFunc = func() time.Time { return now }

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(11 * time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, cb.Execute(context.Background(), passing))
	assert.Equal(t, CircuitClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.nowFunc = func() time.Time { return now }

	_ = cb.Execute(context.Background(), failing)
	now = now.Add(2 * time.Second)
	_ = cb.Execute(context.Background(), failing)

	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_ShouldTrip(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ShouldTrip:       IsTransient,
	})

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, CircuitClosed, cb.State())

	_ = cb.Execute(context.Background(), func(context.Context) error {
		return NewTransientError(errFail, 503)
	})
	assert.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1000})
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			if i%2 == 0 {
				_ = cb.Execute(context.Background(), failing)
			} else {
				_ = cb.Execute(context.Background(), passing)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestExecuteVal(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	v, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, _ = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 0, errFail })
	v, err = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 9, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, v)
}

func TestBreakers(t *testing.T) {
	b := NewBreakers(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	assert.Same(t, b.Get("linkedin"), b.Get("linkedin"))
	assert.NotSame(t, b.Get("linkedin"), b.Get("x"))

	_ = b.Get("x").Execute(context.Background(), failing)
	states := b.States()
	assert.Equal(t, CircuitClosed, states["linkedin"])
	assert.Equal(t, CircuitOpen, states["x"])
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}
