// Package api - thin HTTP layer over the lease analysis engine.
// The API is ONLY responsible for: input decoding, engine orchestration, output serialization.
// The API NEVER performs valuation or tax logic.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lease-analyzer/core/types"
	"lease-analyzer/core/valuation"
	"lease-analyzer/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Analyzer runs and stores a lease analysis.
type Analyzer interface {
	Analyze(ctx context.Context, terms types.LeaseTerms) (*types.LeaseAnalysis, error)
}

// AnalysisReader fetches stored analyses.
type AnalysisReader interface {
	Get(ctx context.Context, id int64) (*types.LeaseAnalysis, error)
}

// Valuator values vehicle descriptions.
type Valuator interface {
	Value(ctx context.Context, text string) (types.VehicleValuation, bool)
	ValueMany(ctx context.Context, inputs []string) []valuation.Result
}

// TaxTable is the state lease tax table.
type TaxTable interface {
	Lookup(code string) (types.StateTaxInfo, bool)
	All() []types.StateTaxInfo
}

// ModelLister lists the vehicles in the legacy valuation table.
type ModelLister interface {
	Models() []string
}

// Deps are the collaborators the server delegates to. Models may be nil.
type Deps struct {
	Analyzer Analyzer
	Analyses AnalysisReader
	Valuator Valuator
	Taxes    TaxTable
	Models   ModelLister
	Version  string
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	MaxBatch int
	Clock    func() time.Time
}

// DefaultMaxBatch caps POST /api/vehicle-values.
const DefaultMaxBatch = 50

// Server is the API server
type Server struct {
	deps    Deps
	mux     *http.ServeMux
	handler http.Handler
	metrics *serverMetrics
}

type serverMetrics struct {
	analyses *prometheus.CounterVec
	requests *prometheus.HistogramVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	f := promauto.With(reg)
	return &serverMetrics{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lease_analyses_total",
			Help: "Completed lease analyses by deal quality and valuation source.",
		}, []string{"deal_quality", "source"}),
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lease_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// NewServer creates a new API server. A nil Registry gets a private
// registry, which is then also used as the Gatherer for /metrics.
func NewServer(deps Deps) *Server {
	if deps.Registry == nil {
		reg := prometheus.NewRegistry()
		deps.Registry = reg
		deps.Gatherer = reg
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.MaxBatch <= 0 {
		deps.MaxBatch = DefaultMaxBatch
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	s := &Server{
		deps:    deps,
		mux:     http.NewServeMux(),
		metrics: newServerMetrics(deps.Registry),
	}
	s.registerRoutes()
	s.handler = s.withRequestLogging(s.mux)
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /api/lease-analysis", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/lease-analysis/{id}", s.handleGetAnalysis)
	s.mux.HandleFunc("GET /api/vehicle-value/{vehicle}", s.handleVehicleValue)
	s.mux.HandleFunc("POST /api/vehicle-values", s.handleVehicleValues)

	// Reference data
	s.mux.HandleFunc("GET /api/car-models", s.handleCarModels)
	s.mux.HandleFunc("GET /api/state-tax/{code}", s.handleStateTax)
	s.mux.HandleFunc("GET /api/states", s.handleStates)

	// Supporting endpoints
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/version", s.handleVersion)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLogging tags every request with an id, logs it and records
// its latency.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.metrics.requests.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(elapsed.Seconds())

		logging.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorResponse{Code: code, Message: message}, status)
}

func generateRequestID() string {
	return "req-" + uuid.NewString()
}
