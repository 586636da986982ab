package model

import "time"

// ResultStatus describes how a resolution ended.
type ResultStatus string

const (
	// ResultValidated means the image passed tag and vision validation.
	ResultValidated ResultStatus = "validated"
	// ResultUnverified means the vision budget was spent and the image
	// passed tag validation only.
	ResultUnverified ResultStatus = "unverified"
	// ResultFallback means no image was vision-confirmed and the first
	// tag-validated image was returned.
	ResultFallback ResultStatus = "fallback"
	// ResultUnavailable means no admissible image could be fetched.
	ResultUnavailable ResultStatus = "unavailable"
)

// Result is the output of a single item resolution.
type Result struct {
	Status      ResultStatus `json:"status"`
	Image       []byte       `json:"-"`
	MediaType   string       `json:"media_type,omitempty"`
	Query       string       `json:"query,omitempty"`
	Profile     string       `json:"profile,omitempty"`
	SourceURL   string       `json:"source_url,omitempty"`
	VisionCalls int          `json:"vision_calls"`
}

// Unavailable returns the explicit "no image" result.
func Unavailable() Result {
	return Result{Status: ResultUnavailable}
}

// Available reports whether the result carries image bytes.
func (r Result) Available() bool {
	return r.Status != ResultUnavailable && len(r.Image) > 0
}

// Resolution is the history record of one resolve call.
type Resolution struct {
	ID          string       `json:"id"`
	Item        string       `json:"item"`
	Hint        string       `json:"hint,omitempty"`
	Status      ResultStatus `json:"status"`
	Query       string       `json:"query,omitempty"`
	Profile     string       `json:"profile,omitempty"`
	SourceURL   string       `json:"source_url,omitempty"`
	VisionCalls int          `json:"vision_calls"`
	Candidates  int          `json:"candidates"`
	DurationMS  int64        `json:"duration_ms"`
	CreatedAt   time.Time    `json:"created_at"`
}
