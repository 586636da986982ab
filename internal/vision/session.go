package vision

import (
	"time"

	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/metrics"
	"github.com/kinderslides/kinderslides/internal/resilience"
)

// Session carries process-wide vision state. Once a rate limit is seen the
// session is disabled and stays disabled; only a new process re-enables it.
type Session struct {
	latch *resilience.Latch
}

// NewSession creates an enabled session.
func NewSession() *Session {
	return &Session{
		latch: resilience.NewLatch(resilience.LatchConfig{
			ShouldTrip: resilience.IsRateLimit,
			OnTrip: func(reason string) {
				metrics.RecordLatchTrip()
				zap.L().Warn("vision: rate limited, disabling vision checks for this session",
					zap.String("reason", reason),
				)
			},
		}),
	}
}

// Disabled reports whether vision checks are switched off.
func (s *Session) Disabled() bool {
	return s.latch.Tripped()
}

// Disable switches vision checks off for the rest of the process. It
// reports whether this call made the transition.
func (s *Session) Disable(reason string) bool {
	return s.latch.Trip(reason)
}

// State reports the latch state, "closed" while vision checks run.
func (s *Session) State() string {
	return s.latch.State().String()
}

// Reason returns why and when the session was disabled.
func (s *Session) Reason() (string, time.Time) {
	return s.latch.Reason()
}
