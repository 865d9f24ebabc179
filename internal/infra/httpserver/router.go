package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	domai "github.com/bryanwahyu/automaton-query/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
	"github.com/bryanwahyu/automaton-query/internal/middleware"
)

// Scanner is the pipeline surface the dashboard drives.
type Scanner interface {
	Run(ctx context.Context, query string) (*domain.ScanRecord, error)
	Latest(ctx context.Context) (*domain.ScanRecord, error)
	ReadLog(ctx context.Context) (string, error)
	ResetLog(ctx context.Context) error
}

// Analyzer produces an assessment of the latest record.
type Analyzer interface {
	AnalyzeLatest(ctx context.Context) (string, error)
}

type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	// RateLimit in requests per second per client IP; 0 disables it.
	RateLimit float64
	Burst     int
	Metrics   *middleware.HTTPMetrics
	Gatherer  prometheus.Gatherer
	Checkers  map[string]middleware.HealthChecker
}

var errBusy = errors.New("a scan is already running")

type Router struct {
	scans    Scanner
	analyzer Analyzer
	logger   zerolog.Logger
	// satu scan dalam satu waktu, record di store cuma satu
	running sync.Mutex
}

func NewRouter(scans Scanner, analyzer Analyzer, opts Options) http.Handler {
	r := &Router{scans: scans, analyzer: analyzer, logger: opts.Logger}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware(opts.Logger))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.Burst))
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Checkers))
	mux.Get("/live", middleware.LivenessHandler)
	if opts.Gatherer != nil {
		mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler(opts.Gatherer))
	}

	mux.Get("/", r.wrap(r.handleDashboard))
	mux.Post("/", r.wrap(r.handleDashboardSubmit))

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/scans", r.wrap(r.handleRunScan))
		rt.Get("/scans/latest", r.wrap(r.handleLatest))
		rt.Get("/logs", r.wrap(r.handleReadLog))
		rt.Delete("/logs", r.wrap(r.handleResetLog))
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				r.logger.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoRecord):
		return http.StatusNotFound
	case errors.Is(err, errBusy):
		return http.StatusConflict
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domai.ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type runResponse struct {
	Outcome domain.Outcome     `json:"outcome"`
	Record  *domain.ScanRecord `json:"record"`
	Error   string             `json:"error,omitempty"`
}

// runScan clears the log, then runs the pipeline detached from the request
// so a dropped client does not abort a half-finished scan.
func (r *Router) runScan(ctx context.Context, raw string) (*domain.ScanRecord, error) {
	query := middleware.SanitizeString(raw)
	if err := middleware.ValidateQuery(query); err != nil {
		return nil, err
	}
	if !r.running.TryLock() {
		return nil, errBusy
	}
	defer r.running.Unlock()

	ctx = context.WithoutCancel(ctx)
	if err := r.scans.ResetLog(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("reset scan log")
	}
	return r.scans.Run(ctx, query)
}

// POST /v1/scans
// Body: {"query": "open ports on http://example.com"}
func (r *Router) handleRunScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", middleware.ErrInvalidQuery, err)
	}

	rec, err := r.runScan(req.Context(), body.Query)
	if rec == nil {
		return err
	}
	resp := runResponse{Outcome: rec.Outcome(), Record: rec}
	status := http.StatusOK
	if err != nil {
		// record tetap dikirim walau gagal disimpan
		r.logger.Error().Err(err).Str("record_id", string(rec.ID)).Msg("scan finished with errors")
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}
	return writeJSON(w, status, resp)
}

// GET /v1/scans/latest
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.scans.Latest(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, runResponse{Outcome: rec.Outcome(), Record: rec})
}

// GET /v1/logs
func (r *Router) handleReadLog(w http.ResponseWriter, req *http.Request) error {
	text, err := r.scans.ReadLog(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err = w.Write([]byte(text))
	return err
}

// DELETE /v1/logs
func (r *Router) handleResetLog(w http.ResponseWriter, req *http.Request) error {
	if err := r.scans.ResetLog(req.Context()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if r.analyzer == nil {
		return domai.ErrNotConfigured
	}
	out, err := r.analyzer.AnalyzeLatest(req.Context())
	if err != nil {
		return err
	}
	if !json.Valid([]byte(out)) {
		return writeJSON(w, http.StatusOK, map[string]string{"analysis": out})
	}
	return writeJSON(w, http.StatusOK, json.RawMessage(out))
}
