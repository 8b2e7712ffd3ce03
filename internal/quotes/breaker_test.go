package quotes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(maxFailures, reset)
	cb.now = clock.now
	return cb, clock
}

var errUpstream = fmt.Errorf("%w: boom", ErrSourceUnavailable)

func failing() error { return errUpstream }
func succeeding() error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(failing), ErrSourceUnavailable)
		assert.Equal(t, StateClosed, cb.CurrentState())
	}

	assert.ErrorIs(t, cb.Execute(failing), ErrSourceUnavailable)
	assert.Equal(t, StateOpen, cb.CurrentState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_NoDataDoesNotTrip(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)

	noData := fmt.Errorf("%w: unknown ticker", ErrNoData)
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return noData }), ErrNoData)
	}
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	require.Error(t, cb.Execute(failing))
	require.NoError(t, cb.Execute(succeeding))
	require.Error(t, cb.Execute(failing))

	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	t.Run("successful trial closes", func(t *testing.T) {
		cb, clock := newTestBreaker(1, 30*time.Second)
		require.Error(t, cb.Execute(failing))
		require.Equal(t, StateOpen, cb.CurrentState())

		clock.advance(10 * time.Second)
		assert.ErrorIs(t, cb.Execute(succeeding), ErrCircuitOpen)

		clock.advance(21 * time.Second)
		assert.NoError(t, cb.Execute(succeeding))
		assert.Equal(t, StateClosed, cb.CurrentState())
	})

	t.Run("failed trial reopens", func(t *testing.T) {
		cb, clock := newTestBreaker(3, 30*time.Second)
		for i := 0; i < 3; i++ {
			require.Error(t, cb.Execute(failing))
		}

		clock.advance(31 * time.Second)
		assert.ErrorIs(t, cb.Execute(failing), ErrSourceUnavailable)
		assert.Equal(t, StateOpen, cb.CurrentState())

		assert.ErrorIs(t, cb.Execute(succeeding), ErrCircuitOpen)
	})
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Second)

	var transitions []string
	cb.OnStateChange = func(from, to BreakerState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}

	require.Error(t, cb.Execute(failing))
	clock.advance(2 * time.Second)
	require.NoError(t, cb.Execute(succeeding))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestErrCircuitOpen_IsSourceUnavailable(t *testing.T) {
	assert.True(t, errors.Is(ErrCircuitOpen, ErrSourceUnavailable))
	assert.False(t, errors.Is(ErrCircuitOpen, ErrNoData))
}

func TestCircuitBreaker_HalfOpenAllowsSingleTrial(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Minute)

	require.Error(t, cb.Execute(failing))
	require.Equal(t, StateOpen, cb.CurrentState())
	clock.advance(2 * time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "only the trial call may reach the source while half-open")
	assert.Equal(t, StateHalfOpen, cb.CurrentState())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.CurrentState())
	assert.NoError(t, cb.Execute(succeeding))
}

func TestCircuitBreaker_CancelledTrialStaysHalfOpen(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Minute)

	require.Error(t, cb.Execute(failing))
	clock.advance(2 * time.Minute)

	err := cb.Execute(func() error { return fmt.Errorf("fetch: %w", context.Canceled) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateHalfOpen, cb.CurrentState())

	// the next caller gets the trial slot
	assert.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateClosed, cb.CurrentState())
}
