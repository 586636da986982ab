package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/model"
)

// MetricsSnapshot holds a point-in-time view of resolution health.
type MetricsSnapshot struct {
	// Resolution outcomes (within lookback window).
	Total       int `json:"total"`
	Validated   int `json:"validated"`
	Unverified  int `json:"unverified"`
	Fallback    int `json:"fallback"`
	Unavailable int `json:"unavailable"`

	// UnavailableRate is unavailable / total.
	UnavailableRate float64 `json:"unavailable_rate"`
	// DegradedRate is (unverified + fallback) / total: images served
	// without a vision confirmation.
	DegradedRate float64 `json:"degraded_rate"`

	// Vision session state.
	VisionDisabled   bool       `json:"vision_disabled"`
	VisionReason     string     `json:"vision_reason,omitempty"`
	VisionDisabledAt *time.Time `json:"vision_disabled_at,omitempty"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// StatusCounter abstracts the store query needed by the collector.
type StatusCounter interface {
	StatusCounts(ctx context.Context, since time.Time) (map[model.ResultStatus]int, error)
}

// SessionState abstracts the vision session latch.
type SessionState interface {
	Disabled() bool
	Reason() (string, time.Time)
}

// Collector gathers metrics from the history store and vision session.
type Collector struct {
	store   StatusCounter
	session SessionState
	now     func() time.Time
}

// NewCollector creates a new metrics collector. session may be nil.
func NewCollector(st StatusCounter, session SessionState) *Collector {
	return &Collector{store: st, session: session, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	counts, err := c.store.StatusCounts(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: status counts")
	}

	snap.Validated = counts[model.ResultValidated]
	snap.Unverified = counts[model.ResultUnverified]
	snap.Fallback = counts[model.ResultFallback]
	snap.Unavailable = counts[model.ResultUnavailable]
	snap.Total = snap.Validated + snap.Unverified + snap.Fallback + snap.Unavailable

	if snap.Total > 0 {
		snap.UnavailableRate = float64(snap.Unavailable) / float64(snap.Total)
		snap.DegradedRate = float64(snap.Unverified+snap.Fallback) / float64(snap.Total)
	}

	if c.session != nil && c.session.Disabled() {
		snap.VisionDisabled = true
		reason, at := c.session.Reason()
		snap.VisionReason = reason
		if !at.IsZero() {
			snap.VisionDisabledAt = &at
		}
	}

	return snap, nil
}
