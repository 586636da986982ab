package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/metrics"
	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/monitoring"
	"github.com/kinderslides/kinderslides/internal/store"
	"github.com/kinderslides/kinderslides/internal/topics"
)

// sessionState is the vision session as seen by the health endpoint.
type sessionState interface {
	Disabled() bool
	State() string
}

// historyReader is the part of store.Store the HTTP handlers read.
type historyReader interface {
	ListResolutions(ctx context.Context, filter store.Filter) ([]model.Resolution, error)
}

// serverDeps are the collaborators of the HTTP handlers. History and
// Collector are nil when the history store is disabled.
type serverDeps struct {
	Resolver    itemResolver
	Catalog     *topics.Catalog
	Session     sessionState
	Backend     string
	History     historyReader
	Collector   *monitoring.Collector
	CORSOrigins []string
}

func buildRouter(d serverDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestMetrics)
	r.Use(middleware.Recoverer)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Resolution-Status", "X-Source-URL", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	h := &handlers{deps: d}
	r.Get("/health", h.health)
	r.Get("/topics", h.listTopics)
	r.Get("/topics/{name}", h.getTopic)
	r.Get("/resolve", h.resolve)
	r.Get("/runs", h.listRuns)
	r.Get("/runs/stats", h.runStats)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type handlers struct {
	deps serverDeps
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok", "vision": "off"}
	if h.deps.Backend != "" {
		body["vision"] = h.deps.Backend
		if h.deps.Session != nil {
			body["latch"] = h.deps.Session.State()
			if h.deps.Session.Disabled() {
				body["vision"] = "disabled"
			}
		}
	}
	writeJSONResponse(w, http.StatusOK, body)
}

func (h *handlers) listTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.deps.Catalog.Topics())
}

func (h *handlers) getTopic(w http.ResponseWriter, r *http.Request) {
	t, ok := h.deps.Catalog.Get(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown topic")
		return
	}
	writeJSONResponse(w, http.StatusOK, t)
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	item := model.NewItem(r.URL.Query().Get("item"), r.URL.Query().Get("hint"))
	if item.Name == "" {
		writeError(w, http.StatusBadRequest, "item is required")
		return
	}

	res := h.deps.Resolver.Resolve(r.Context(), item)
	if !res.Available() {
		writeJSONResponse(w, http.StatusNotFound, map[string]any{
			"status":       model.ResultUnavailable,
			"item":         item.Name,
			"vision_calls": res.VisionCalls,
		})
		return
	}

	w.Header().Set("Content-Type", res.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Image)))
	w.Header().Set("X-Resolution-Status", string(res.Status))
	w.Header().Set("X-Source-URL", res.SourceURL)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Image); err != nil {
		zap.L().Debug("resolve: write response", zap.Error(err))
	}
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}

	q := r.URL.Query()
	filter := store.Filter{
		Status: model.ResultStatus(q.Get("status")),
		Item:   q.Get("item"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	rows, err := h.deps.History.ListResolutions(r.Context(), filter)
	if err != nil {
		zap.L().Error("runs: list resolutions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if rows == nil {
		rows = []model.Resolution{}
	}
	writeJSONResponse(w, http.StatusOK, rows)
}

func (h *handlers) runStats(w http.ResponseWriter, r *http.Request) {
	if h.deps.Collector == nil {
		writeError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid hours")
			return
		}
		hours = n
	}

	snap, err := h.deps.Collector.Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("runs: collect stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSONResponse(w, http.StatusOK, snap)
}

func writeJSONResponse(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write json response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSONResponse(w, code, map[string]string{"error": msg})
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestMetrics records every request under its chi route pattern so
// item names never become label values.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "/unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.RecordHTTPRequest(route, r.Method, rec.status, time.Since(start))
	})
}
