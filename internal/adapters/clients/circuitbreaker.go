package clients

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen blocks requests until the cool-down has passed.
	StateOpen

	// StateHalfOpen lets a limited number of probes through.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
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

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Timeout is the open-state cool-down before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed and the
	// number of probe successes that close the circuit.
	HalfOpenLimit int
}

// CircuitBreaker stops calls to a failing downstream.
//
//	closed    --MaxFailures consecutive failures--> open
//	open      --Timeout elapsed, next Allow-------> half-open
//	half-open --HalfOpenLimit successes-----------> closed
//	half-open --any failure-----------------------> open
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	probes        int
	openedAt      time.Time
	onStateChange func(from, to State)
}

// NewCircuitBreaker creates a closed breaker. Non-positive limits are raised to 1.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.HalfOpenLimit = max(cfg.HalfOpenLimit, 1)

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every transition. fn runs on the
// caller's goroutine once the breaker lock is released.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onStateChange = fn
}

// Allow reports whether a call may proceed. In half-open it reserves a probe
// slot that RecordSuccess or RecordFailure releases.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	allowed := false
	from := cb.state

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			cb.setLocked(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	cb.unlockAndNotify(from)

	return allowed
}

// RecordSuccess reports a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	from := cb.state

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes = max(cb.probes-1, 0)
		cb.successes++

		if cb.successes >= cb.cfg.HalfOpenLimit {
			cb.setLocked(StateClosed)
		}
	}

	cb.unlockAndNotify(from)
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	from := cb.state

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.setLocked(StateOpen)
		}
	case StateHalfOpen:
		cb.setLocked(StateOpen)
	}

	cb.unlockAndNotify(from)
}

// State returns the current state without advancing it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

func (cb *CircuitBreaker) setLocked(to State) {
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0

	if to == StateOpen {
		cb.openedAt = cb.now()
	}
}

// unlockAndNotify releases the lock and reports a transition away from from.
func (cb *CircuitBreaker) unlockAndNotify(from State) {
	to := cb.state
	fn := cb.onStateChange
	cb.mu.Unlock()

	if fn != nil && from != to {
		fn(from, to)
	}
}
