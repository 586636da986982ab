// Package resilience provides the session latch and error classification
// used around calls to optional external services.
package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState represents the state of a latch.
type CircuitState int

const (
	// CircuitClosed is the normal operating state; calls flow through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the latch has tripped; calls are rejected until the
	// process exits.
	CircuitOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ErrLatched is returned when a call is rejected because the latch is open.
var ErrLatched = eris.New("latch is open")

// LatchConfig controls latch behavior.
type LatchConfig struct {
	// ShouldTrip decides whether a call error opens the latch. If nil, only
	// rate-limit errors (IsRateLimit) trip it.
	ShouldTrip func(err error) bool

	// OnTrip is called exactly once, when the latch opens.
	OnTrip func(reason string)
}

// Latch is a circuit breaker without a half-open state: the first tripping
// error opens it and nothing closes it again. A fresh process gets a fresh
// latch.
type Latch struct {
	cfg  LatchConfig
	open atomic.Bool

	mu        sync.Mutex
	reason    string
	trippedAt time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewLatch creates a closed latch.
func NewLatch(cfg LatchConfig) *Latch {
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = IsRateLimit
	}
	return &Latch{cfg: cfg, nowFunc: time.Now}
}

// Execute runs fn unless the latch is open, in which case it returns
// ErrLatched without calling fn. An error from fn that satisfies ShouldTrip
// opens the latch; the error is still returned to the caller.
func (l *Latch) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.Tripped() {
		return ErrLatched
	}
	err := fn(ctx)
	l.record(err)
	return err
}

// ExecuteVal is like Execute but preserves a return value.
func ExecuteVal[T any](ctx context.Context, l *Latch, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if l.Tripped() {
		return zero, ErrLatched
	}
	val, err := fn(ctx)
	l.record(err)
	return val, err
}

// Trip opens the latch. It reports whether this call made the transition.
func (l *Latch) Trip(reason string) bool {
	if !l.open.CompareAndSwap(false, true) {
		return false
	}
	l.mu.Lock()
	l.reason = reason
	l.trippedAt = l.nowFunc()
	l.mu.Unlock()

	if l.cfg.OnTrip != nil {
		l.cfg.OnTrip(reason)
	}
	return true
}

// Tripped reports whether the latch is open.
func (l *Latch) Tripped() bool {
	return l.open.Load()
}

// State returns the current latch state.
func (l *Latch) State() CircuitState {
	if l.Tripped() {
		return CircuitOpen
	}
	return CircuitClosed
}

// Reason returns why and when the latch opened. Both are zero while closed.
func (l *Latch) Reason() (string, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason, l.trippedAt
}

func (l *Latch) record(err error) {
	if err == nil || !l.cfg.ShouldTrip(err) {
		return
	}
	l.Trip(err.Error())
}
