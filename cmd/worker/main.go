// Package main provides the entrypoint for the network import worker.
//
// The worker copies the transit network from a feed (GTFS or the JSON
// provider) into the database the API serves from. Imports run on Pub/Sub
// "network_refresh" messages and, if configured, on a fixed interval.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/breatheroute/tripplanner/internal/api/handler"
	"github.com/breatheroute/tripplanner/internal/api/middleware"
	"github.com/breatheroute/tripplanner/internal/config"
	"github.com/breatheroute/tripplanner/internal/database"
	"github.com/breatheroute/tripplanner/internal/network"
	"github.com/breatheroute/tripplanner/internal/provider/resilience"
	"github.com/breatheroute/tripplanner/internal/source"
	"github.com/breatheroute/tripplanner/internal/telemetry"
	"github.com/breatheroute/tripplanner/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tripplanner-worker"

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

	log.Info().
		Str("build_time", BuildTime).
		Str("import_source", string(cfg.Network.ImportSource)).
		Str("target", string(cfg.Network.Source)).
		Msg("starting network import worker")

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

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("worker failed")
		stop()
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	log.Info().Msg("worker stopped")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	providers := resilience.NewRegistry()
	opts := source.Options{
		Network:  cfg.Network,
		Database: database.ConfigFromEnv(),
		Registry: providers,
		Logger:   log,
	}

	target, err := source.Open(ctx, cfg.Network.Source, opts)
	if err != nil {
		return fmt.Errorf("open import target: %w", err)
	}
	defer target.Close()
	if target.Repository == nil || cfg.Network.Source == config.SourceStatic {
		return fmt.Errorf("%w: NETWORK_SOURCE %q cannot be imported into", config.ErrInvalidConfig, cfg.Network.Source)
	}

	feed, err := source.Open(ctx, cfg.Network.ImportSource, opts)
	if err != nil {
		return fmt.Errorf("open import source: %w", err)
	}
	defer feed.Close()

	importer := network.NewImporter(feed.Source, target.Repository, log)
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.DefaultRefreshConfig(worker.RefreshTarget{
			Name:      string(cfg.Network.ImportSource) + "-import",
			Refresher: importer,
		}),
		Logger: log,
	})

	// Health server for the platform's probes
	ops := handler.NewOpsHandler(handler.OpsConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Network:   target.Loader(),
		Providers: providers,
		Refresh:   refreshJob,
	})
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Get("/health", ops.HealthCheck)
	r.Get("/ready", ops.ReadinessCheck)
	r.Get("/status", ops.SystemStatus)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("health server forced to shutdown")
		}
	}()

	if cfg.Network.RefreshInterval > 0 {
		log.Info().Dur("interval", cfg.Network.RefreshInterval).Msg("scheduled imports enabled")
		go refreshJob.RunEvery(ctx, cfg.Network.RefreshInterval)
	}

	if cfg.PubSubSubscription == "" {
		if cfg.Network.RefreshInterval == 0 {
			result := refreshJob.Run(ctx)
			if result.Failed > 0 {
				return fmt.Errorf("import failed: %s", result.Errors[0].Error)
			}
			return nil
		}
		<-ctx.Done()
		return nil
	}

	dispatcher := worker.NewDispatcher(refreshJob, func(ctx context.Context) error {
		_, err := feed.Source.ListRoutes(ctx)
		return err
	}, log)
	pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSubProjectID,
		SubscriptionName: cfg.PubSubSubscription,
		Dispatcher:       dispatcher,
		Logger:           log,
	})
	if err != nil {
		return err
	}
	defer pubsubHandler.Close()

	log.Info().Msg("worker started, waiting for messages")
	if err := pubsubHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("receive messages: %w", err)
	}
	return nil
}
