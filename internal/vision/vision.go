// Package vision confirms that an image depicts a concept by asking a
// vision-capable model. The check is optional: when no backend is set up,
// when the session is disabled, or when a call fails, the image is accepted.
package vision

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/metrics"
	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/resilience"
)

const (
	// ConfidenceThreshold is the minimum reported confidence for a positive
	// verdict to count as a match.
	ConfidenceThreshold = 0.7

	// MaxCallsPerItem bounds how many images are sent for checking while
	// resolving a single item.
	MaxCallsPerItem = 3

	// DefaultTimeout bounds a single check.
	DefaultTimeout = 10 * time.Second
)

// Backend asks a model whether an image shows label.
type Backend interface {
	Name() string
	Check(ctx context.Context, image []byte, mediaType, label string) (model.Verdict, error)
}

// Validator runs backend checks under the session latch.
type Validator struct {
	backend Backend
	session *Session
	timeout time.Duration
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewValidator creates a Validator. A nil backend yields a validator that
// accepts everything without network calls. A nil session gets a fresh one.
func NewValidator(backend Backend, session *Session, opts ...Option) *Validator {
	if session == nil {
		session = NewSession()
	}
	v := &Validator{backend: backend, session: session, timeout: DefaultTimeout}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Enabled reports whether Confirm will currently reach a backend.
func (v *Validator) Enabled() bool {
	return v != nil && v.backend != nil && !v.session.Disabled()
}

// Session returns the latch shared by this validator.
func (v *Validator) Session() *Session {
	return v.session
}

// Assessment is the outcome of one image check.
type Assessment struct {
	// Accept is true when the image may be used.
	Accept bool
	// Called is true when a request reached the backend.
	Called bool
	// Verified is true when the backend returned a verdict. Accept without
	// Verified means the image was let through unchecked.
	Verified bool
}

// Confirm reports whether image shows label. It returns true without a
// call when the validator is bypassed, and true on any call failure.
func (v *Validator) Confirm(ctx context.Context, image []byte, mediaType, label string) bool {
	return v.Assess(ctx, image, mediaType, label).Accept
}

// Assess checks image against label and reports whether the backend was
// reached and answered.
func (v *Validator) Assess(ctx context.Context, image []byte, mediaType, label string) Assessment {
	if v == nil || v.backend == nil {
		return Assessment{Accept: true}
	}
	name := v.backend.Name()
	if v.session.Disabled() {
		metrics.RecordVision(name, "bypass")
		return Assessment{Accept: true}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	called := false
	verdict, err := resilience.ExecuteVal(ctx, v.session.latch, func(ctx context.Context) (model.Verdict, error) {
		called = true
		return v.backend.Check(ctx, image, mediaType, label)
	})
	log := zap.L().With(
		zap.String("backend", name),
		zap.String("label", label),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err != nil {
		kind := Classify(err)
		metrics.RecordVision(name, string(kind))
		log.Warn("vision: check failed, accepting image",
			zap.String("failure", string(kind)),
			zap.Error(err),
		)
		return Assessment{Accept: Permit(kind), Called: called}
	}

	accept := verdict.Matches && verdict.Confidence >= ConfidenceThreshold
	outcome := "reject"
	if accept {
		outcome = "accept"
	}
	metrics.RecordVision(name, outcome)
	log.Debug("vision: verdict",
		zap.Bool("matches", verdict.Matches),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("description", verdict.Description),
		zap.Bool("accept", accept),
	)
	return Assessment{Accept: accept, Called: true, Verified: true}
}
