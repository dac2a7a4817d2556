package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/breatheroute/tripplanner/internal/planner"

// ServiceConfig holds configuration for the planner service.
type ServiceConfig struct {
	// Loader supplies the network snapshot (required).
	Loader NetworkLoader

	// Logger for service operations.
	Logger zerolog.Logger

	// DefaultMaxWalkingDistanceMeters applies when a request leaves the
	// walking threshold unset (default: 1000).
	DefaultMaxWalkingDistanceMeters float64

	// Metrics records planning statistics (optional).
	Metrics *Metrics

	// Now stamps responses (default: time.Now).
	Now func() time.Time
}

// Service plans itineraries over the snapshot returned by its loader.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	loader         NetworkLoader
	logger         zerolog.Logger
	defaultMaxWalk float64
	metrics        *Metrics
	now            func() time.Time
	tracer         trace.Tracer
}

// NewService creates a new planner service.
func NewService(cfg ServiceConfig) *Service {
	maxWalk := cfg.DefaultMaxWalkingDistanceMeters
	if maxWalk <= 0 {
		maxWalk = DefaultMaxWalkingDistanceMeters
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		loader:         cfg.Loader,
		logger:         cfg.Logger,
		defaultMaxWalk: maxWalk,
		metrics:        cfg.Metrics,
		now:            now,
		tracer:         otel.Tracer(tracerName),
	}
}

// PlanItineraries loads the network and returns up to the requested number of
// itineraries ordered by total duration. The direct walk is always a
// candidate, so the result is never empty. Loader failures are returned
// wrapped in ErrNetworkUnavailable.
func (s *Service) PlanItineraries(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	limit := ClampLimit(req.Limit)
	maxWalk := s.defaultMaxWalk
	if req.MaxWalkingDistanceMeters != nil {
		maxWalk = *req.MaxWalkingDistanceMeters
	}

	ctx, span := s.tracer.Start(ctx, "planner.PlanItineraries",
		trace.WithAttributes(
			attribute.Int("plan.limit", limit),
			attribute.Float64("plan.max_walk_m", maxWalk),
		),
	)
	defer span.End()

	loadStart := time.Now()
	routes, err := s.loader.LoadNetwork(ctx)
	s.metrics.recordLoad(ctx, time.Since(loadStart), err)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug().Err(err).Msg("network load abandoned: request canceled")
		} else {
			s.logger.Error().Err(err).Msg("failed to load transit network")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "network load failed")
		return nil, fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
	}

	candidates := GenerateCandidates(routes, req.Origin, req.Destination, maxWalk)

	itineraries := make([]Itinerary, 0, len(candidates)+1)
	for _, c := range candidates {
		itineraries = append(itineraries, BuildItinerary(c, req.Origin, req.Destination))
	}

	// The walk goes last so it loses duration ties. With no bus options
	// it is the whole result, since limit is at least one.
	itineraries = append(itineraries, BuildDirectWalk(req.Origin, req.Destination))
	sort.SliceStable(itineraries, func(i, j int) bool {
		return itineraries[i].TotalDurationMinutes < itineraries[j].TotalDurationMinutes
	})
	if len(itineraries) > limit {
		itineraries = itineraries[:limit]
	}

	span.SetAttributes(
		attribute.Int("plan.routes", len(routes)),
		attribute.Int("plan.candidates", len(candidates)),
		attribute.Int("plan.itineraries", len(itineraries)),
	)
	s.metrics.recordPlan(ctx, len(candidates), len(itineraries))

	s.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Int("routes", len(routes)).
		Int("candidates", len(candidates)).
		Int("itineraries", len(itineraries)).
		Msg("planned itineraries")

	return &Response{
		GeneratedAt: s.now(),
		Itineraries: itineraries,
	}, nil
}

// ClampLimit resolves a requested itinerary count: nil yields DefaultLimit and
// anything else is clamped to [MinLimit, MaxLimit].
func ClampLimit(limit *int) int {
	if limit == nil {
		return DefaultLimit
	}
	switch {
	case *limit < MinLimit:
		return MinLimit
	case *limit > MaxLimit:
		return MaxLimit
	default:
		return *limit
	}
}
