package api

import (
	"sync"
	"time"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed allows all requests
	CircuitClosed CircuitState = iota
	// CircuitOpen blocks all requests
	CircuitOpen
	// CircuitHalfOpen allows one probe request to test recovery
	CircuitHalfOpen
)

// ErrCircuitOpen is returned when the breaker is open. It is a
// TransientError so callers that branch on shared.IsTransient treat a
// tripped breaker like any other upstream outage.
var ErrCircuitOpen = shared.NewTransientError(0, "circuit breaker open")

// CircuitBreaker trips after consecutive transient failures and blocks
// calls until a reset timeout elapses, at which point one probe is allowed
// through. Only transient errors count against the breaker: a 4xx or 429
// proves the upstream is alive and resets nothing either way.
type CircuitBreaker struct {
	threshold    int
	resetTimeout time.Duration
	clock        shared.Clock

	mu          sync.RWMutex
	state       CircuitState
	failures    int
	lastFailure time.Time
}

// NewCircuitBreaker creates a breaker. A nil clock uses the real one.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration, clock shared.Clock) *CircuitBreaker {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
		clock:        clock,
	}
}

// Call executes fn under breaker protection. The lock is not held during
// fn so a slow upstream call never blocks other callers' state checks.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		if cb.clock.Now().Sub(cb.lastFailure) < cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = CircuitHalfOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil && shared.IsTransient(err) {
		cb.onTransientFailure()
	} else {
		cb.onContact()
	}
	return err
}

// onTransientFailure records an upstream failure and opens the breaker
// when the threshold is reached
func (cb *CircuitBreaker) onTransientFailure() {
	cb.failures++
	cb.lastFailure = cb.clock.Now()

	if cb.state == CircuitHalfOpen || cb.failures >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// onContact records proof that the upstream answered, whether with a
// success or a non-transient error
func (cb *CircuitBreaker) onContact() {
	cb.failures = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
	}
}

// State returns the current breaker state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// FailureCount returns the consecutive transient failure count
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Reset closes the breaker and clears the failure count
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = CircuitClosed
	cb.failures = 0
}
