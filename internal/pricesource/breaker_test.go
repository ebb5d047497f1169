package pricesource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceFunc func(ctx context.Context, article string) (float64, error)

func (f sourceFunc) FetchPrice(ctx context.Context, article string) (float64, error) {
	return f(ctx, article)
}

func newTestBreaker(threshold int, cooldown time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: threshold, Cooldown: cooldown}, testLogger())
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	boom := errors.New("boom")
	calls := 0
	fail := func(context.Context) error { calls++; return boom }

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, calls)

	stats := cb.Stats()
	assert.Equal(t, int64(3), stats.Failed)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(1), stats.StateChanges)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)
	boom := errors.New("boom")

	_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	_ = cb.Execute(context.Background(), func(context.Context) error { return boom })

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)
	boom := errors.New("boom")

	_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	require.Equal(t, StateOpen, cb.State())

	*now = now.Add(2 * time.Minute)
	_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	assert.Equal(t, StateOpen, cb.State(), "failed trial reopens")

	*now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenAllowsSingleCall(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())
	*now = now.Add(2 * time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	require.Equal(t, StateHalfOpen, cb.State())
	calls := 0
	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { calls++; return nil })
		assert.ErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Zero(t, calls)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, int64(3), cb.Stats().Rejected)

	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
}

func TestCircuitBreaker_CancelledTrialFreesSlot(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	*now = now.Add(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoresCancellation(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Hour)
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}

func TestGuardedSource_FetchPrice(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Hour)
	fails := true
	src := NewGuardedSource(sourceFunc(func(_ context.Context, article string) (float64, error) {
		if fails {
			return 0, errors.New("page not found")
		}
		return 1299.5, nil
	}), cb)

	_, err := src.FetchPrice(context.Background(), "42")
	require.Error(t, err)

	fails = false
	_, err = src.FetchPrice(context.Background(), "42")
	assert.ErrorIs(t, err, ErrCircuitOpen)

	cb.Reset()
	price, err := src.FetchPrice(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 1299.5, price)
}
