// Package resilience guards calls to external advisory services. When an
// LLM endpoint degrades, every decision would otherwise pay the full retry
// budget before falling back to the deterministic rules; the breaker trips
// after repeated failures and sends subsequent decisions straight to the
// fallback until a cooldown probe succeeds.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of an advisory breaker.
type BreakerState string

const (
	BreakerClosed  BreakerState = "CLOSED"  // advisory calls allowed
	BreakerOpen    BreakerState = "OPEN"    // advisory bypassed
	BreakerProbing BreakerState = "PROBING" // one call through to test recovery
)

// ErrBreakerOpen is returned by Allow while the breaker is open.
var ErrBreakerOpen = errors.New("advisory breaker is open")

// BreakerConfig holds advisory breaker tuning.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// SuccessThreshold is the number of probe successes required to close.
	SuccessThreshold int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the standard advisory breaker tuning.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Cooldown:         5 * time.Minute,
	}
}

// Breaker is a circuit breaker for advisory strategy calls. All methods are
// safe for concurrent use.
type Breaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time

	totalCalls    int64
	totalFailures int64
	totalRejected int64
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	return &Breaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  BreakerClosed,
	}
}

// Allow reports whether an advisory call may proceed. An open breaker
// transitions to probing once the cooldown has elapsed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) >= b.config.Cooldown {
			b.transition(BreakerProbing)
			return nil
		}
		b.totalRejected++
		return ErrBreakerOpen
	default:
		return nil
	}
}

// Record accounts for the outcome of an advisory call that Allow admitted.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalCalls++
	if err != nil {
		b.totalFailures++
		switch b.state {
		case BreakerClosed:
			b.failures++
			if b.failures >= b.config.FailureThreshold {
				b.open()
			}
		case BreakerProbing:
			// A failed probe reopens for another full cooldown.
			b.open()
		}
		return
	}

	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerProbing:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(BreakerClosed)
		}
	}
}

func (b *Breaker) open() {
	b.transition(BreakerOpen)
	b.openedAt = b.now()
}

func (b *Breaker) transition(state BreakerState) {
	b.state = state
	b.failures = 0
	b.successes = 0
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// Stats returns a snapshot of breaker counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		Name:          b.name,
		State:         b.state,
		TotalCalls:    b.totalCalls,
		TotalFailures: b.totalFailures,
		TotalRejected: b.totalRejected,
	}
}

// BreakerStats is a point-in-time snapshot of breaker counters.
type BreakerStats struct {
	Name          string
	State         BreakerState
	TotalCalls    int64
	TotalFailures int64
	TotalRejected int64
}
