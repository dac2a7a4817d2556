package planner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/breatheroute/tripplanner/internal/planner"

// Metrics holds the OpenTelemetry instruments for planning.
type Metrics struct {
	plansTotal       metric.Int64Counter
	candidates       metric.Int64Histogram
	itineraries      metric.Int64Histogram
	networkLoadTime  metric.Float64Histogram
	networkLoadTotal metric.Int64Counter
}

// NewMetrics creates planner instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	plansTotal, err := meter.Int64Counter(
		"planner.plans.total",
		metric.WithDescription("Total number of successful planning requests"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return nil, err
	}

	candidates, err := meter.Int64Histogram(
		"planner.candidates",
		metric.WithDescription("Bus candidates generated per planning request"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, err
	}

	itineraries, err := meter.Int64Histogram(
		"planner.itineraries",
		metric.WithDescription("Itineraries returned per planning request"),
		metric.WithUnit("{itinerary}"),
	)
	if err != nil {
		return nil, err
	}

	networkLoadTime, err := meter.Float64Histogram(
		"planner.network.load.duration",
		metric.WithDescription("Duration of network snapshot loads in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	networkLoadTotal, err := meter.Int64Counter(
		"planner.network.load.total",
		metric.WithDescription("Total number of network snapshot loads"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		plansTotal:       plansTotal,
		candidates:       candidates,
		itineraries:      itineraries,
		networkLoadTime:  networkLoadTime,
		networkLoadTotal: networkLoadTotal,
	}, nil
}

func (m *Metrics) recordLoad(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.Bool("error", err != nil)}
	m.networkLoadTime.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	m.networkLoadTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) recordPlan(ctx context.Context, candidates, itineraries int) {
	if m == nil {
		return
	}
	m.plansTotal.Add(ctx, 1)
	m.candidates.Record(ctx, int64(candidates))
	m.itineraries.Record(ctx, int64(itineraries))
}
