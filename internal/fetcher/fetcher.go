// Package fetcher downloads remote resources into memory.
package fetcher

import "context"

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Fetch performs a single GET and returns the whole body. It never
	// retries; a failed fetch is the caller's to skip.
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Response is a fully-read HTTP response body.
type Response struct {
	Body        []byte
	ContentType string
	StatusCode  int
}
