package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/fitforge/internal/ingest/alpha"
	fitmcp "github.com/claude/fitforge/internal/mcp"
	"github.com/claude/fitforge/internal/metrics"
	"github.com/claude/fitforge/internal/training"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *training.Service
	alpha   *alpha.Provider
	log     *slog.Logger
	apiKey  string
	metrics *metrics.Manager
	gather  prometheus.Gatherer
	router  chi.Router
	whois   WhoIser
}

// Options configures optional server features.
type Options struct {
	// APIKey, when set, is required in X-API-Key on every /api/v1 route.
	APIKey string
	// Metrics records request metrics. Nil disables them.
	Metrics *metrics.Manager
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// New creates a new Server with all routes configured.
func New(svc *training.Service, opts Options, log *slog.Logger) *Server {
	s := &Server{
		svc:     svc,
		alpha:   alpha.NewProvider(svc, svc.Library(), log),
		log:     log,
		apiKey:  opts.APIKey,
		metrics: opts.Metrics,
		gather:  opts.Gatherer,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(PanicRecovery(s.log, s.metrics))
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(RequestMetrics(s.metrics))
	}
	s.router.Use(CORS)

	if s.gather != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Use(s.identity)

		r.Get("/me", s.handleMe)

		r.Get("/muscle-states", s.handleGetMuscleStates)
		r.Put("/muscle-states", s.handleSetMuscleStates)
		r.Get("/recovery/timeline", s.handleRecoveryTimeline)
		r.Post("/recommendations/exercises", s.handleRecommend)
		r.Post("/forecast/workout", s.handleForecast)

		r.Post("/workouts", s.handleCompleteWorkout)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/training/summary", s.handleTrainingSummary)
		r.Post("/import/alpha", s.handleAlphaImport)

		r.Get("/baselines", s.handleListBaselines)
		r.Post("/baselines/{muscle}/accept", s.handleAcceptBaseline)
		r.Put("/baselines/{muscle}/override", s.handleOverrideBaseline)

		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Put("/calibrations/{exerciseID}", s.handleSetCalibration)
		r.Delete("/calibrations/{exerciseID}", s.handleResetCalibration)
	})
}

// SetTailscale switches request identity from the local dev user to the
// tailnet caller.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

// SetMCP mounts an MCP streamable HTTP handler at /mcp. Tool calls run as
// the identified user.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Use(s.identity)
		r.Handle("/mcp", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := fitmcp.WithUserID(req.Context(), userIDFromContext(req))
			h.ServeHTTP(w, req.WithContext(ctx))
		}))
	})
}

// identity picks Tailscale or dev identity per request so SetTailscale can
// run after the routes are built.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.svc, s.log)(next).ServeHTTP(w, r)
	})
}
