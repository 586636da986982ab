// Package metrics exposes Prometheus counters for image resolution.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kinderslides"

var (
	// searchesTotal counts provider searches.
	// Labels: profile, outcome (hits, empty, error)
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "searches_total",
		Help:      "Image searches by parameter profile and outcome",
	}, []string{"profile", "outcome"})

	// fetchesTotal counts candidate image downloads.
	// Labels: outcome (ok, error, not_image)
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "fetches_total",
		Help:      "Candidate image downloads by outcome",
	}, []string{"outcome"})

	// visionCallsTotal counts vision checks.
	// Labels: backend, outcome (accept, reject, bypass, rate_limit, timeout, malformed, other)
	visionCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "vision",
		Name:      "checks_total",
		Help:      "Vision checks by backend and outcome",
	}, []string{"backend", "outcome"})

	visionLatchTrips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "vision",
		Name:      "latch_trips_total",
		Help:      "Times the vision validator was disabled for the session",
	})

	// resolutionsTotal counts finished resolutions.
	// Labels: status (validated, unverified, fallback, unavailable)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolve",
		Name:      "resolutions_total",
		Help:      "Finished resolutions by result status",
	}, []string{"status"})

	resolutionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "resolve",
		Name:      "duration_seconds",
		Help:      "Wall time of a single resolution",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
	})

	// httpRequestsTotal counts HTTP requests.
	// Labels: route (chi pattern), method, code
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "code"})

	httpRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// Search outcomes.
const (
	SearchHits  = "hits"
	SearchEmpty = "empty"
	SearchError = "error"
)

// Fetch outcomes.
const (
	FetchOK       = "ok"
	FetchError    = "error"
	FetchNotImage = "not_image"
)

// RecordSearch counts one provider search.
func RecordSearch(profile, outcome string) {
	searchesTotal.WithLabelValues(profile, outcome).Inc()
}

// RecordFetch counts one candidate download.
func RecordFetch(outcome string) {
	fetchesTotal.WithLabelValues(outcome).Inc()
}

// RecordVision counts one vision check.
func RecordVision(backend, outcome string) {
	visionCallsTotal.WithLabelValues(backend, outcome).Inc()
}

// RecordLatchTrip counts the vision session being disabled.
func RecordLatchTrip() {
	visionLatchTrips.Inc()
}

// RecordResolution counts a finished resolution and its duration.
func RecordResolution(status string, d time.Duration) {
	resolutionsTotal.WithLabelValues(status).Inc()
	resolutionSeconds.Observe(d.Seconds())
}

// RecordHTTPRequest counts one served HTTP request.
func RecordHTTPRequest(route, method string, code int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpRequestSeconds.WithLabelValues(route).Observe(d.Seconds())
}
