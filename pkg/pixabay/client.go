// Package pixabay is a client for the Pixabay image search API.
package pixabay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/resilience"
)

const (
	defaultBaseURL = "https://pixabay.com/api/"

	// maxQueryRunes is the longest search term the API accepts.
	maxQueryRunes = 100

	defaultMaxResponseBytes = 2 << 20
)

// Client performs Pixabay image searches.
type Client interface {
	Search(ctx context.Context, params SearchParams) (*SearchResponse, error)
}

// SearchParams are the filters for one image search.
type SearchParams struct {
	Query      string
	ImageType  string // "all", "photo", "illustration", "vector"
	Category   string
	MinWidth   int
	MinHeight  int
	PerPage    int
	SafeSearch bool
}

// SearchResponse is the response from the image search endpoint.
type SearchResponse struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []Hit `json:"hits"`
}

// Hit is one image returned by a search.
type Hit struct {
	ID              int    `json:"id"`
	PageURL         string `json:"pageURL"`
	Type            string `json:"type"`
	Tags            string `json:"tags"`
	PreviewURL      string `json:"previewURL"`
	WebformatURL    string `json:"webformatURL"`
	WebformatWidth  int    `json:"webformatWidth"`
	WebformatHeight int    `json:"webformatHeight"`
	LargeImageURL   string `json:"largeImageURL"`
	ImageWidth      int    `json:"imageWidth"`
	ImageHeight     int    `json:"imageHeight"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMaxResponseBytes caps how much of a response body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	maxBytes int64
}

// NewClient creates a Pixabay API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxBytes: defaultMaxResponseBytes,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, eris.Wrap(err, "pixabay: parse base url")
	}
	u.RawQuery = encodeParams(c.apiKey, params).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pixabay: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pixabay: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "pixabay: read response")
	}
	if int64(len(body)) > c.maxBytes {
		return nil, eris.Errorf("pixabay: response exceeds %d bytes", c.maxBytes)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError(
			eris.Errorf("pixabay: unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200)),
			resp.StatusCode,
		)
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pixabay: unmarshal response")
	}

	return &result, nil
}

func encodeParams(apiKey string, p SearchParams) url.Values {
	v := url.Values{}
	v.Set("key", apiKey)
	v.Set("q", truncate(p.Query, maxQueryRunes))
	if p.ImageType != "" {
		v.Set("image_type", p.ImageType)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.MinWidth > 0 {
		v.Set("min_width", strconv.Itoa(p.MinWidth))
	}
	if p.MinHeight > 0 {
		v.Set("min_height", strconv.Itoa(p.MinHeight))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	v.Set("safesearch", strconv.FormatBool(p.SafeSearch))
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
