package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call outright.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	StateClosed   CircuitState = iota // Normal operation
	StateOpen                         // Circuit is open, requests fail immediately
	StateHalfOpen                     // Testing if the downstream has recovered
)

// CircuitBreaker protects a downstream dependency (the recognition provider)
// from being hammered while it is failing.
type CircuitBreaker struct {
	name         string
	maxFailures  int           // Consecutive failures before opening
	resetTimeout time.Duration // Time to wait before attempting half-open
	halfOpenMax  int           // Successes required in half-open to close

	onStateChange func(CircuitState)

	mu            sync.RWMutex
	state         CircuitState
	failureCount  int
	successCount  int
	halfOpenCount int
	lastFailTime  time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  3,
		state:        StateClosed,
	}
}

// OnStateChange registers fn to be called with the new state whenever the
// breaker transitions. Register before the breaker is shared; the hook runs
// outside the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(CircuitState)) {
	cb.onStateChange = fn
}

// notify invokes the state-change hook when prev differs from next
func (cb *CircuitBreaker) notify(prev, next CircuitState) {
	if prev != next && cb.onStateChange != nil {
		cb.onStateChange(next)
	}
}

// Call executes fn with circuit breaker protection
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.RecordResult(err == nil)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	prev := cb.state
	allowed := false

	switch cb.state {
	case StateClosed:
		allowed = true

	case StateOpen:
		if time.Since(cb.lastFailTime) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.halfOpenCount = 0
			cb.successCount = 0
			allowed = true
		}

	case StateHalfOpen:
		if cb.halfOpenCount < cb.halfOpenMax {
			cb.halfOpenCount++
			allowed = true
		}
	}

	next := cb.state
	cb.mu.Unlock()

	cb.notify(prev, next)
	return allowed
}

// RecordResult records the outcome of a guarded call
func (cb *CircuitBreaker) RecordResult(success bool) {
	cb.mu.Lock()
	prev := cb.state

	if success {
		switch cb.state {
		case StateClosed:
			cb.failureCount = 0
		case StateHalfOpen:
			cb.successCount++
			if cb.successCount >= cb.halfOpenMax {
				cb.state = StateClosed
				cb.failureCount = 0
				cb.halfOpenCount = 0
				cb.successCount = 0
			}
		}
	} else {
		cb.lastFailTime = time.Now()
		switch cb.state {
		case StateClosed:
			cb.failureCount++
			if cb.failureCount >= cb.maxFailures {
				cb.state = StateOpen
			}
		case StateHalfOpen:
			// Any failure in half-open immediately re-opens the circuit
			cb.state = StateOpen
			cb.halfOpenCount = 0
			cb.successCount = 0
		}
	}

	next := cb.state
	cb.mu.Unlock()

	cb.notify(prev, next)
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Name returns the breaker's downstream name (used as a metric label)
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	prev := cb.state
	cb.state = StateClosed
	cb.failureCount = 0
	cb.halfOpenCount = 0
	cb.successCount = 0
	cb.mu.Unlock()

	cb.notify(prev, StateClosed)
}
