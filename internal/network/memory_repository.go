package network

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It backs tests and the static demo network.
type InMemoryRepository struct {
	mu     sync.RWMutex
	routes map[string]Route
}

// NewInMemoryRepository creates a repository seeded with routes.
func NewInMemoryRepository(routes ...Route) *InMemoryRepository {
	r := &InMemoryRepository{routes: make(map[string]Route, len(routes))}
	for _, route := range routes {
		r.routes[route.ID] = cloneRoute(route)
	}
	return r
}

// ListRoutes returns copies of all routes ordered by ID.
func (r *InMemoryRepository) ListRoutes(ctx context.Context) ([]Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		routes = append(routes, cloneRoute(route))
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes, nil
}

// GetRoute retrieves a route by ID.
func (r *InMemoryRepository) GetRoute(_ context.Context, id string) (*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[id]
	if !ok {
		return nil, ErrRouteNotFound
	}

	cpy := cloneRoute(route)
	return &cpy, nil
}

// ReplaceNetwork swaps in a new set of routes.
func (r *InMemoryRepository) ReplaceNetwork(_ context.Context, routes []Route) error {
	next := make(map[string]Route, len(routes))
	for i := range routes {
		if err := routes[i].Validate(); err != nil {
			return err
		}
		next[routes[i].ID] = cloneRoute(routes[i])
	}

	r.mu.Lock()
	r.routes = next
	r.mu.Unlock()
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
