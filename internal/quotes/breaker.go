package quotes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// BreakerState represents the circuit breaker state
type BreakerState int

const (
	StateClosed   BreakerState = 0 // calls pass through
	StateOpen     BreakerState = 1 // calls rejected until the reset timeout elapses
	StateHalfOpen BreakerState = 2 // a single trial call in flight, others rejected
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call
var ErrCircuitOpen = fmt.Errorf("%w: circuit breaker is open", ErrSourceUnavailable)

// CircuitBreaker opens after maxFailures consecutive failures and rejects
// calls for resetTimeout, then lets a single trial call through while
// rejecting the rest until that call finishes. Only errors
// matching ErrSourceUnavailable count as failures; ErrNoData is an answer.
type CircuitBreaker struct {
	mu           sync.Mutex
	state        BreakerState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time
	trialRunning bool
	now          func() time.Time

	OnStateChange func(from, to BreakerState)
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
		now:          time.Now,
	}
}

// Execute runs fn through the breaker
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
			cb.transition(StateHalfOpen)
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	trial := false
	if cb.state == StateHalfOpen {
		if cb.trialRunning {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.trialRunning = true
		trial = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if trial {
		cb.trialRunning = false
	}

	if err != nil && errors.Is(err, ErrSourceUnavailable) {
		cb.failures++
		cb.lastFailure = cb.now()

		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.transition(StateOpen)
		}
		return err
	}

	// an abandoned trial says nothing about the provider
	cancelled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if trial && cb.state == StateHalfOpen && !cancelled {
		cb.transition(StateClosed)
	}
	if cb.state == StateClosed {
		cb.failures = 0
	}
	return err
}

// CurrentState returns the breaker state
func (cb *CircuitBreaker) CurrentState() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.OnStateChange != nil {
		cb.OnStateChange(from, to)
	}
}
