package models

import (
	"github.com/breatheroute/tripplanner/internal/planner"
	"github.com/breatheroute/tripplanner/pkg/geo"
)

// RouteSummary describes a route without its stops.
type RouteSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"number"`
	StopCount int    `json:"stopCount"`
}

// RouteList is the body returned by GET /v1/network/routes.
type RouteList struct {
	Routes []RouteSummary `json:"routes"`
	Count  int            `json:"count"`
}

// RouteDetail is a route with its ordered stops.
type RouteDetail struct {
	RouteSummary
	Stops            []Stop `json:"stops"`
	GeometryPolyline string `json:"geometryPolyline,omitempty"`
}

// Stop is a stop on a route.
type Stop struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	SequenceIndex int     `json:"sequenceIndex"`
}

// NewRouteList summarises the routes in snapshot order.
func NewRouteList(routes []planner.Route) RouteList {
	out := RouteList{Routes: make([]RouteSummary, len(routes)), Count: len(routes)}
	for i := range routes {
		out.Routes[i] = summary(&routes[i])
	}
	return out
}

// NewRouteDetail converts a planner route to its wire form.
func NewRouteDetail(r *planner.Route) RouteDetail {
	detail := RouteDetail{
		RouteSummary: summary(r),
		Stops:        make([]Stop, len(r.Stops)),
	}
	path := make([]geo.Coordinate, len(r.Stops))
	for i, s := range r.Stops {
		detail.Stops[i] = Stop{
			ID:            s.ID,
			Name:          s.Name,
			Latitude:      s.Lat,
			Longitude:     s.Lon,
			SequenceIndex: s.SequenceIndex,
		}
		path[i] = s.Coordinate()
	}
	if len(path) > 1 {
		detail.GeometryPolyline = geo.EncodePolyline(path)
	}
	return detail
}

func summary(r *planner.Route) RouteSummary {
	return RouteSummary{
		ID:        r.ID,
		Name:      r.Name,
		Number:    r.Number,
		StopCount: len(r.Stops),
	}
}
