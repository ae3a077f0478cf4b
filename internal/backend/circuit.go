package backend

import (
	"sync"
	"time"
)

// CircuitState represents the state of the backend circuit breaker.
type CircuitState int

const (
	StateClosed   CircuitState = iota // healthy — requests flow
	StateOpen                         // unhealthy — requests blocked
	StateHalfOpen                     // probing — one request allowed
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards the backend against sustained failure. After
// failureThreshold consecutive failures the circuit opens and invocations are
// rejected immediately until a probe succeeds.
type CircuitBreaker struct {
	mu sync.Mutex

	state       CircuitState
	failures    int
	lastFailure time.Time
	openedAt    time.Time

	failureThreshold      int
	recoveryProbeInterval time.Duration
}

// NewCircuitBreaker creates a circuit breaker with the given thresholds.
// A threshold of zero or less disables the breaker entirely.
func NewCircuitBreaker(failureThreshold int, recoveryProbeInterval time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:                 StateClosed,
		failureThreshold:      failureThreshold,
		recoveryProbeInterval: recoveryProbeInterval,
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// currentState returns state, transitioning OPEN→HALF_OPEN if probe interval
// elapsed. Must be called with mu held.
func (cb *CircuitBreaker) currentState() CircuitState {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.recoveryProbeInterval {
		cb.state = StateHalfOpen
	}
	return cb.state
}

// Allow returns true if an invocation should be attempted.
func (cb *CircuitBreaker) Allow() bool {
	if cb.failureThreshold <= 0 {
		return true
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateClosed:
		return true
	case StateHalfOpen:
		// Allow exactly one probe request
		return true
	case StateOpen:
		return false
	}
	return false
}

// RecordSuccess records a successful invocation.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb.failureThreshold <= 0 {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		// Probe succeeded — close the circuit
		cb.state = StateClosed
		cb.failures = 0
	case StateClosed:
		cb.failures = 0
	}
}

// RecordFailure records a failed invocation.
func (cb *CircuitBreaker) RecordFailure() {
	if cb.failureThreshold <= 0 {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
			cb.openedAt = time.Now()
		}
	case StateHalfOpen:
		// Probe failed — reopen
		cb.state = StateOpen
		cb.openedAt = time.Now()
	}
}
