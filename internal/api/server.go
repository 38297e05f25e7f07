package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/lazystate/internal/errors"
	"github.com/vango-dev/lazystate/internal/scenario"
	"github.com/vango-dev/lazystate/pkg/metrics"
)

// DefaultHistory is the number of reports kept for GET /runs/{id}.
const DefaultHistory = 100

// Options configures a Server.
type Options struct {
	// Addr is the listen address.
	Addr string

	// Namespace and Subsystem prefix every exported metric.
	Namespace string
	Subsystem string

	// MaxBodyBytes caps the size of a posted scenario. Default: 1 MiB.
	MaxBodyBytes int64

	// History is the number of reports kept in memory. Default: DefaultHistory.
	History int

	// Logger receives request and replay logs. Default: slog.Default().
	Logger *slog.Logger
}

// Server replays scenarios posted over HTTP and exports decision metrics.
type Server struct {
	Addr string

	router   *chi.Mux
	server   *http.Server
	registry *prometheus.Registry
	decision *metrics.Collector
	replays  *prometheus.CounterVec
	logger   *slog.Logger
	maxBody  int64

	mu      sync.Mutex
	history int
	reports map[string]*scenario.Report
	order   []string
}

// NewServer creates a new API server with its own metrics registry.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	if opts.Namespace == "" {
		opts.Namespace = "lazystate"
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		Addr:     opts.Addr,
		router:   chi.NewRouter(),
		registry: registry,
		decision: metrics.New(
			metrics.WithRegistry(registry),
			metrics.WithNamespace(opts.Namespace),
			metrics.WithSubsystem(opts.Subsystem),
		),
		replays: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      "replays_total",
			Help:      "Total number of replayed scenarios, by result",
		}, []string{"result"}),
		logger:  opts.Logger,
		maxBody: opts.MaxBodyBytes,
		history: opts.History,
		reports: make(map[string]*scenario.Report),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/replay", s.handleReplay)
	s.router.Get("/runs/{id}", s.handleGetRun)
	s.router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the registry holding the server's metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Start starts the API server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Error writes an error response.
func (s *Server) Error(w http.ResponseWriter, code int, err error) {
	resp := Response{Error: err.Error()}
	var e *errors.Error
	if stderrors.As(err, &e) {
		resp.Code = e.Code
	}
	s.write(w, code, resp)
}

// Success writes a response wrapping data.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	s.write(w, code, Response{Success: true, Data: data})
}

func (s *Server) write(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// handleReplay runs the YAML scenario in the request body. It answers 200
// when every expectation held and 422 otherwise; both carry the report.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.Error(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		s.Error(w, http.StatusBadRequest, err)
		return
	}

	sc, err := scenario.Parse(body, "request")
	if err != nil {
		s.replays.WithLabelValues("invalid").Inc()
		s.Error(w, http.StatusBadRequest, err)
		return
	}

	report, err := scenario.Run(r.Context(), sc,
		scenario.WithObserver(s.decision),
		scenario.WithLogger(s.logger),
	)
	if err != nil {
		s.replays.WithLabelValues("canceled").Inc()
		s.Error(w, http.StatusServiceUnavailable, err)
		return
	}
	s.remember(report)

	w.Header().Set("X-Run-ID", report.RunID)
	if !report.Passed() {
		s.replays.WithLabelValues("failed").Inc()
		s.write(w, http.StatusUnprocessableEntity, Response{Data: report, Error: "expectations failed"})
		return
	}
	s.replays.WithLabelValues("passed").Inc()
	s.Success(w, http.StatusOK, report)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	report, ok := s.reports[id]
	s.mu.Unlock()

	if !ok {
		s.Error(w, http.StatusNotFound, errors.Newf(errors.CategoryReplay, "run %s not found", id))
		return
	}
	s.Success(w, http.StatusOK, report)
}

// remember stores report, evicting the oldest once history is full.
func (s *Server) remember(report *scenario.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) >= s.history {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
	s.reports[report.RunID] = report
	s.order = append(s.order, report.RunID)
}

// logRequests logs one line per request at info level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
