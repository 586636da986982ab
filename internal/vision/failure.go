package vision

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/resilience"
)

// FailureKind classifies a failed vision check.
type FailureKind string

const (
	FailureRateLimit FailureKind = "rate_limit"
	FailureTimeout   FailureKind = "timeout"
	FailureMalformed FailureKind = "malformed"
	FailureOther     FailureKind = "other"
)

// ErrMalformed marks a model reply that is not the expected verdict JSON.
var ErrMalformed = eris.New("vision: malformed verdict")

// Classify maps a check error to its FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, resilience.ErrLatched), resilience.IsRateLimit(err):
		return FailureRateLimit
	case resilience.IsTimeout(err):
		return FailureTimeout
	case errors.Is(err, ErrMalformed):
		return FailureMalformed
	default:
		return FailureOther
	}
}

// Permit decides whether an image is accepted when its check failed with
// kind. Every failure is permissive: vision is never a hard requirement.
func Permit(FailureKind) bool {
	return true
}
