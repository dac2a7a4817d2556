// Package main provides the entrypoint for the trip planner API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/tripplanner/internal/api"
	"github.com/breatheroute/tripplanner/internal/api/middleware"
	"github.com/breatheroute/tripplanner/internal/config"
	"github.com/breatheroute/tripplanner/internal/database"
	"github.com/breatheroute/tripplanner/internal/network"
	"github.com/breatheroute/tripplanner/internal/planner"
	"github.com/breatheroute/tripplanner/internal/provider/resilience"
	"github.com/breatheroute/tripplanner/internal/source"
	"github.com/breatheroute/tripplanner/internal/telemetry"
	"github.com/breatheroute/tripplanner/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tripplanner-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Str("network_source", string(cfg.Network.Source)).
		Msg("starting trip planner API")

	// Initialize OpenTelemetry
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	plannerMetrics, err := planner.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize planner metrics")
	}

	// Open the network source behind a snapshot cache
	providers := resilience.NewRegistry()
	src, err := source.Open(ctx, cfg.Network.Source, source.Options{
		Network:  cfg.Network,
		Database: database.ConfigFromEnv(),
		Registry: providers,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open network source")
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close network source")
		}
	}()

	cache := network.NewCachedLoader(network.CachedLoaderConfig{
		Loader:          src.Loader(),
		Logger:          log,
		TTL:             cfg.Network.CacheTTL,
		StaleIfErrorTTL: cfg.Network.StaleIfErrorTTL,
	})
	if _, err := cache.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial network load failed, will retry on first request")
	}

	plannerService := planner.NewService(planner.ServiceConfig{
		Loader:                          cache,
		Logger:                          log,
		DefaultMaxWalkingDistanceMeters: cfg.DefaultMaxWalkMeters,
		Metrics:                         plannerMetrics,
	})
	log.Info().Msg("planner service initialized")

	// Refresh the cache on Pub/Sub notifications
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.DefaultRefreshConfig(worker.RefreshTarget{Name: "network-cache", Refresher: cache}),
		Logger: log,
	})
	if cfg.PubSubSubscription != "" {
		dispatcher := worker.NewDispatcher(refreshJob, func(ctx context.Context) error {
			_, err := cache.LoadNetwork(ctx)
			return err
		}, log)
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Dispatcher:       dispatcher,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer pubsubHandler.Close()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            httpMetrics,
		Planner:            plannerService,
		Network:            cache,
		Cache:              cache,
		Providers:          providers,
		Refresh:            refreshJob,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequireTLS:         cfg.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
