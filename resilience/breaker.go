package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen rejects every call.
	StateOpen
	// StateHalfOpen admits a limited number of probe calls.
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

// ErrCircuitOpen is returned by Allow while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and state callbacks.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures" validate:"gte=0"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// HalfOpenMaxCalls is the number of probes admitted while half-open.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls" validate:"gte=0"`
	// OnStateChange is called, under the breaker lock, on every transition.
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	cfg := CircuitBreakerConfig{Name: name}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-value fields.
func (c *CircuitBreakerConfig) ApplyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
}

// Validate checks the configuration.
func (c *CircuitBreakerConfig) Validate() error {
	if c.MaxFailures < 0 || c.HalfOpenMaxCalls < 0 {
		return fmt.Errorf("resilience: circuit breaker %q: counts must not be negative", c.Name)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("resilience: circuit breaker %q: timeout must not be negative", c.Name)
	}
	return nil
}

// CircuitBreaker tracks the health of an upstream and rejects calls while it
// is considered down.
//
// A caller asks Allow before a call and reports the outcome with Success or
// Failure afterwards. Every admitted call should report exactly one outcome;
// calls that never report leave their half-open probe slot taken until the
// next transition.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	probes   int
	probeOK  int
	openedAt time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	config.ApplyDefaults()
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Name returns the configured breaker name.
func (cb *CircuitBreaker) Name() string { return cb.config.Name }

// Allow reports whether a call may proceed. It returns ErrCircuitOpen when the
// circuit is open, or half-open with every probe slot taken.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.current() {
	case StateClosed:
		return nil
	case StateHalfOpen:
		if cb.probes < cb.config.HalfOpenMaxCalls {
			cb.probes++
			return nil
		}
	}
	return ErrCircuitOpen
}

// Success records a successful call.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.current() {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probeOK++
		if cb.probeOK >= cb.config.HalfOpenMaxCalls {
			cb.transition(StateClosed)
		}
	}
}

// Failure records a failed call.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.current() {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

// Cancel gives back the probe slot of an admitted call that ended without
// an outcome. It has no effect outside the half-open state.
func (cb *CircuitBreaker) Cancel() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.current() == StateHalfOpen && cb.probes > cb.probeOK {
		cb.probes--
	}
}

// Execute runs fn if the breaker allows it and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil {
		cb.Failure()
	} else {
		cb.Success()
	}
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.current()
}

// Failures returns the consecutive failure count while closed.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
}

// current returns the state, moving open to half-open once the timeout has
// elapsed. Must be called with mu held.
func (cb *CircuitBreaker) current() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.transition(StateHalfOpen)
	}
	return cb.state
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.probes = 0
	cb.probeOK = 0
	switch to {
	case StateClosed:
		cb.failures = 0
	case StateOpen:
		cb.openedAt = cb.now()
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
