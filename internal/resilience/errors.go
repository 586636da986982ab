package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// StatusError wraps an error returned by a remote API together with the
// HTTP status code it carried.
type StatusError struct {
	Err        error
	StatusCode int
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError wraps err with an HTTP status code.
func NewStatusError(err error, statusCode int) *StatusError {
	return &StatusError{Err: err, StatusCode: statusCode}
}

// StatusCode returns the HTTP status carried by the first StatusError in
// err's chain.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// IsRateLimit reports whether err signals that the remote service is
// throttling us: an HTTP 429, or a message from an SDK that does not expose
// the status code.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := StatusCode(err); ok {
		return code == http.StatusTooManyRequests
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"rate limit",
		"rate_limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
		"quota exceeded",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if code, ok := StatusCode(err); ok {
		return code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded") ||
		strings.Contains(msg, "tls handshake timeout")
}

// IsTransient returns true if the error is worth trying again against a
// different request: timeouts, throttling, 5xx and connection-level failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsTimeout(err) || IsRateLimit(err) {
		return true
	}
	if code, ok := StatusCode(err); ok {
		return IsTransientHTTPStatus(code)
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
