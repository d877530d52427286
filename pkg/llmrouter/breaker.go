// Package llmrouter implements the LLM router (C6): an ordered provider
// chain, each guarded by an independent circuit breaker, with a terminal
// rule-based provider that never fails.
package llmrouter

import (
	"sync"
	"time"
)

// BreakerState mirrors spec.md §4.6's three states.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
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

// BreakerConfig tunes the failure threshold and cooldown.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, Cooldown: 30 * time.Second}
}

// Breaker is a per-provider circuit breaker. Transitions, per spec.md §4.6:
// N consecutive failures → open; open → half-open after cooldown;
// half-open success → closed; half-open failure → open with refreshed
// deadline. Modeled on the classify-then-dispatch discipline of the
// teacher's MCP recovery logic, generalized from a single retry decision
// into a stateful breaker across many calls.
type Breaker struct {
	mu             sync.Mutex
	cfg            BreakerConfig
	state          BreakerState
	failureCount   int
	openUntil      time.Time
	halfOpenInFlight bool
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Allow reports whether a call may proceed right now, transitioning
// open→half-open if the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().After(b.openUntil) {
			b.state = StateHalfOpen
			b.halfOpenInFlight = true
			return true
		}
		return false
	case StateHalfOpen:
		if b.halfOpenInFlight {
			return false // only one probe in flight
		}
		b.halfOpenInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.halfOpenInFlight = false
}

// RecordFailure increments the failure count, opening the breaker once the
// threshold is reached, or re-opening with a refreshed deadline on a
// half-open probe failure.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halfOpenInFlight = false
	if b.state == StateHalfOpen {
		b.open()
		return
	}
	b.failureCount++
	if b.failureCount >= b.cfg.FailureThreshold {
		b.open()
	}
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openUntil = time.Now().Add(b.cfg.Cooldown)
	b.failureCount = b.cfg.FailureThreshold
}

// Status reports the breaker's introspectable state, per spec.md §4.6.
type Status struct {
	State        string
	FailureCount int
}

func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{State: b.state.String(), FailureCount: b.failureCount}
}
