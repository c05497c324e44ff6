// Package api exposes the event engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	service "github.com/okian/fanpulse/internal/app"
	"github.com/okian/fanpulse/internal/domain/mobility"
	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest validates, deduplicates and enqueues records.
	Ingest(ctx context.Context, events []model.RawEvent) (service.IngestResult, error)

	// Read operations over the stored catalogue.
	Event(ctx context.Context, id string) (service.EventView, error)
	EventState(ctx context.Context, id string, now time.Time, soon *time.Duration) (service.StateView, error)
	States(ctx context.Context, scope model.Scope, now time.Time) ([]service.StateView, error)
	Mobility(ctx context.Context, scope model.Scope, w *mobility.Window) (service.MobilityView, error)
	MobilityRange(ctx context.Context, scope model.Scope, fromHour, toHour int) (mobility.Range, error)
	Explain(ctx context.Context, scope model.Scope, minute int) ([]string, error)
	Congestion(ctx context.Context, scope model.Scope) (service.CongestionView, error)
	Risk(ctx context.Context, scope model.Scope, anchor *model.Location, radiusKm float64) (service.RiskView, error)

	// DateKey formats t as a local date for region.
	DateKey(region string, t time.Time) string
	// Window is the configured mobility window.
	Window() mobility.Window
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	queryHandler  *QueryHandler

	corsOrigins       []string
	rateLimitRequests int
	rateLimitWindow   time.Duration
	now               func() time.Time
	logger            logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRateLimit allows requests per window for each client IP. A
// non-positive value disables limiting.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimitRequests = requests
		s.rateLimitWindow = window
	}
}

// WithClock sets the clock used when a request carries no "now".
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for request logging.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		corsOrigins: []string{"*"},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.eventsHandler = NewEventsHandler(deps, s.now)
	s.queryHandler = NewQueryHandler(deps, s.now)
	return s
}

// Router builds the chi router with the middleware stack and every route.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogMiddleware(s.logger))
	r.Use(MetricsMiddleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler)
	if s.rateLimitRequests > 0 && s.rateLimitWindow > 0 {
		r.Use(RateLimitMiddleware(s.rateLimitRequests, s.rateLimitWindow))
	}

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", s.eventsHandler.HandlePostEvents)
		r.Get("/{id}", s.eventsHandler.HandleGetEvent)
		r.Get("/{id}/state", s.eventsHandler.HandleGetState)
	})

	r.Get("/states", s.queryHandler.HandleStates)
	r.Route("/mobility", func(r chi.Router) {
		r.Get("/", s.queryHandler.HandleMobility)
		r.Get("/range", s.queryHandler.HandleMobilityRange)
		r.Get("/explain", s.queryHandler.HandleExplain)
	})
	r.Get("/congestion", s.queryHandler.HandleCongestion)
	r.Get("/risk", s.queryHandler.HandleRisk)

	return r
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// retryAfterSeconds is the Retry-After hint sent with 429 responses.
const retryAfterSeconds = "1"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if status < http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("requestID", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: middleware.GetReqID(r.Context())})
}
