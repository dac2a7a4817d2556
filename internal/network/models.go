// Package network loads, stores and caches the transit network snapshot
// consumed by the planner.
package network

import (
	"errors"
	"fmt"
	"sort"

	"github.com/breatheroute/tripplanner/internal/planner"
	"github.com/breatheroute/tripplanner/pkg/geo"
)

// Sentinel errors for network operations.
var (
	// ErrRouteNotFound indicates the requested route doesn't exist.
	ErrRouteNotFound = errors.New("route not found")

	// ErrInvalidRoute indicates a route failed validation.
	ErrInvalidRoute = errors.New("invalid route")
)

// Stop is a stored stop on a route.
type Stop struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"latitude"`
	Lon           float64 `json:"longitude"`
	SequenceIndex int     `json:"sequenceIndex"`
}

// Route is a stored one-directional route.
type Route struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Stops  []Stop `json:"stops"`
}

// Validate checks identifiers, coordinates and sequence uniqueness.
func (r *Route) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRoute)
	}

	seen := make(map[int]struct{}, len(r.Stops))
	for _, s := range r.Stops {
		if s.ID == "" {
			return fmt.Errorf("%w: route %s has a stop without id", ErrInvalidRoute, r.ID)
		}
		if !(geo.Coordinate{Lat: s.Lat, Lon: s.Lon}).Valid() {
			return fmt.Errorf("%w: stop %s on route %s has coordinates out of range", ErrInvalidRoute, s.ID, r.ID)
		}
		if _, dup := seen[s.SequenceIndex]; dup {
			return fmt.Errorf("%w: route %s repeats sequence index %d", ErrInvalidRoute, r.ID, s.SequenceIndex)
		}
		seen[s.SequenceIndex] = struct{}{}
	}
	return nil
}

// ToPlanner converts stored routes to planner routes with stops sorted by
// sequence index. The input is not modified.
func ToPlanner(routes []Route) []planner.Route {
	out := make([]planner.Route, len(routes))
	for i, r := range routes {
		stops := make([]planner.Stop, len(r.Stops))
		for j, s := range r.Stops {
			stops[j] = planner.Stop{
				ID:            s.ID,
				Name:          s.Name,
				Lat:           s.Lat,
				Lon:           s.Lon,
				SequenceIndex: s.SequenceIndex,
			}
		}
		sort.SliceStable(stops, func(a, b int) bool {
			return stops[a].SequenceIndex < stops[b].SequenceIndex
		})

		out[i] = planner.Route{
			ID:     r.ID,
			Name:   r.Name,
			Number: r.Number,
			Stops:  stops,
		}
	}
	return out
}

func cloneRoute(r Route) Route {
	cpy := r
	cpy.Stops = append([]Stop(nil), r.Stops...)
	return cpy
}
