// Package resilience provides retry, timeout-race and circuit breaker
// helpers for provider calls.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected because the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreakerConfig controls circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Name labels log lines.
	Name string

	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int

	// Window resets the failure count when the previous failure is older
	// than this. Zero disables the window.
	Window time.Duration

	// Cooldown is how long the circuit stays open before a probe.
	Cooldown time.Duration

	// ShouldTrip decides which errors count. Nil counts every error.
	ShouldTrip func(err error) bool
}

// DefaultCircuitBreakerConfig opens after 3 failures within 30s for 60s.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		Window:           30 * time.Second,
		Cooldown:         60 * time.Second,
	}
}

// CircuitBreaker skips a flaky upstream after repeated failures.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	lastFailure time.Time
	openedAt    time.Time

	now func() time.Time
}

// NewCircuitBreaker creates a circuit breaker with the given config.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Allow reports whether a call may proceed. An open circuit whose cooldown
// has elapsed moves to half-open and admits one probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitOpen {
		return true
	}
	if cb.now().Sub(cb.openedAt) >= cb.cfg.Cooldown {
		cb.state = CircuitHalfOpen
		return true
	}
	return false
}

// Record feeds a call outcome into the breaker.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	trips := err != nil
	if trips && cb.cfg.ShouldTrip != nil {
		trips = cb.cfg.ShouldTrip(err)
	}
	if !trips {
		cb.state = CircuitClosed
		cb.failures = 0
		return
	}

	now := cb.now()
	if cb.cfg.Window > 0 && !cb.lastFailure.IsZero() && now.Sub(cb.lastFailure) > cb.cfg.Window {
		cb.failures = 0
	}
	cb.failures++
	cb.lastFailure = now

	if cb.state == CircuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		if cb.state != CircuitOpen {
			zap.L().Warn("circuit breaker opened",
				zap.String("name", cb.cfg.Name),
				zap.Int("failures", cb.failures),
				zap.Duration("cooldown", cb.cfg.Cooldown),
			)
		}
		cb.state = CircuitOpen
		cb.openedAt = now
	}
}

// Execute runs fn through the breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := ExecuteVal(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// ExecuteVal is Execute for functions that return a value.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !cb.Allow() {
		return zero, ErrCircuitOpen
	}
	val, err := fn(ctx)
	cb.Record(err)
	return val, err
}

// State returns the current state, reporting an expired open circuit as
// half-open.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.Cooldown {
		return CircuitHalfOpen
	}
	return cb.state
}

// Reset forces the circuit closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = CircuitClosed
	cb.failures = 0
}

// Breakers hands out one circuit breaker per provider name.
type Breakers struct {
	cfg CircuitBreakerConfig

	mu sync.Mutex
	m  map[string]*CircuitBreaker
}

// NewBreakers creates a per-provider breaker registry.
func NewBreakers(cfg CircuitBreakerConfig) *Breakers {
	return &Breakers{cfg: cfg, m: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for name, creating it on first use.
func (b *Breakers) Get(name string) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.m[name]; ok {
		return cb
	}
	cfg := b.cfg
	cfg.Name = name
	cb := NewCircuitBreaker(cfg)
	b.m[name] = cb
	return cb
}

// States returns a snapshot of every breaker's state.
func (b *Breakers) States() map[string]CircuitState {
	b.mu.Lock()
	names := make([]string, 0, len(b.m))
	cbs := make([]*CircuitBreaker, 0, len(b.m))
	for name, cb := range b.m {
		names = append(names, name)
		cbs = append(cbs, cb)
	}
	b.mu.Unlock()

	out := make(map[string]CircuitState, len(names))
	for i, name := range names {
		out[name] = cbs[i].State()
	}
	return out
}
