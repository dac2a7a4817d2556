// Package api provides the HTTP API for the trip planner.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/breatheroute/tripplanner/internal/api/handler"
	"github.com/breatheroute/tripplanner/internal/api/middleware"
	"github.com/breatheroute/tripplanner/internal/api/models"
	"github.com/breatheroute/tripplanner/internal/api/response"
	"github.com/breatheroute/tripplanner/internal/planner"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Planner serves POST /v1/plans.
	Planner handler.Planner
	// Network is the snapshot loader behind the network and readiness endpoints.
	Network planner.NetworkLoader

	// Optional status sources for GET /v1/ops/status.
	Cache     handler.CacheStatter
	Providers handler.ProviderLister
	Refresh   handler.RefreshReporter

	// CORSAllowedOrigins defaults to all origins.
	CORSAllowedOrigins []string
	RequireTLS         bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tripplanner-api"
	}
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "traceparent", "tracestate"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		traceID := middleware.GetRequestID(r.Context())
		response.Error(w, r, models.NewMethodNotAllowed(traceID, r.Method+" is not supported on "+r.URL.Path))
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Network:   cfg.Network,
		Cache:     cfg.Cache,
		Providers: cfg.Providers,
		Refresh:   cfg.Refresh,
	})
	planHandler := handler.NewPlanHandler(cfg.Planner, cfg.Logger)
	networkHandler := handler.NewNetworkHandler(cfg.Network, cfg.Logger)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.With(middleware.RequireJSON).Post("/plans", planHandler.CreatePlan)

		r.Route("/network/routes", func(r chi.Router) {
			r.Get("/", networkHandler.ListRoutes)
			r.Get("/{routeId}", networkHandler.GetRoute)
		})
	})

	return r
}
