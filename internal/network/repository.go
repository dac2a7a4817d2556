package network

import (
	"context"

	"github.com/breatheroute/tripplanner/internal/planner"
)

// Source supplies stored routes.
type Source interface {
	// ListRoutes returns every route in the network.
	ListRoutes(ctx context.Context) ([]Route, error)
}

// Repository defines the interface for network persistence.
type Repository interface {
	Source

	// GetRoute retrieves a route by ID.
	// Returns ErrRouteNotFound if the route doesn't exist.
	GetRoute(ctx context.Context, id string) (*Route, error)

	// ReplaceNetwork atomically replaces all routes and stops.
	ReplaceNetwork(ctx context.Context, routes []Route) error
}

// SourceLoader adapts a Source to planner.NetworkLoader.
type SourceLoader struct {
	Source Source
}

// LoadNetwork lists the source routes and converts them for planning.
func (l SourceLoader) LoadNetwork(ctx context.Context) ([]planner.Route, error) {
	routes, err := l.Source.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}
	return ToPlanner(routes), nil
}

var _ planner.NetworkLoader = SourceLoader{}
