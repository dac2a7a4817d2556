// Package planner builds walk and bus itineraries between two coordinates
// over a transit network snapshot.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/breatheroute/tripplanner/pkg/geo"
)

// Sentinel errors for planning operations.
var (
	// ErrNetworkUnavailable indicates the network snapshot could not be loaded.
	ErrNetworkUnavailable = errors.New("transit network unavailable")
	// ErrInvalidRequest indicates the request failed boundary validation.
	ErrInvalidRequest = errors.New("invalid plan request")
)

// Request defaults and bounds.
const (
	DefaultMaxWalkingDistanceMeters = 1000.0
	DefaultLimit                    = 3
	MinLimit                        = 1
	MaxLimit                        = 5
)

// NetworkLoader supplies the transit network snapshot.
// Implementations return routes with stops sorted by SequenceIndex and must be
// safe for concurrent use.
type NetworkLoader interface {
	LoadNetwork(ctx context.Context) ([]Route, error)
}

// NetworkLoaderFunc adapts a function to NetworkLoader.
type NetworkLoaderFunc func(ctx context.Context) ([]Route, error)

// LoadNetwork calls f(ctx).
func (f NetworkLoaderFunc) LoadNetwork(ctx context.Context) ([]Route, error) {
	return f(ctx)
}

// Stop is a stop on a single route.
type Stop struct {
	ID            string
	Name          string
	Lat           float64
	Lon           float64
	SequenceIndex int
}

// Coordinate returns the stop position.
func (s Stop) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: s.Lat, Lon: s.Lon}
}

// Route is a one-directional sequence of stops.
type Route struct {
	ID     string
	Name   string
	Number string
	Stops  []Stop
}

// Candidate is a feasible (route, boarding stop, alighting stop) pairing.
type Candidate struct {
	Route     *Route
	StartStop Stop
	EndStop   Stop

	// StartDistance is the walk from the origin to StartStop in meters.
	StartDistance float64
	// EndDistance is the walk from EndStop to the destination in meters.
	EndDistance float64
	// RideDistance is the summed segment length between the two stops in meters.
	RideDistance float64

	// StopCount includes both the boarding and alighting stops.
	StopCount int

	// path holds the traversed stop positions.
	path []geo.Coordinate
}

// LegType distinguishes walking from riding.
type LegType string

const (
	LegWalk LegType = "walk"
	LegBus  LegType = "bus"
)

// Leg is one homogeneous segment of an itinerary.
type Leg struct {
	Type            LegType
	DistanceMeters  float64
	DurationMinutes float64
	Start           geo.Coordinate
	End             geo.Coordinate

	// Path is the geometry of the leg, start and end included.
	Path []geo.Coordinate

	// Bus leg fields; nil on walk legs.
	Transit *TransitDetails
}

// TransitDetails identifies the route and stops of a bus leg.
type TransitDetails struct {
	RouteID       string
	RouteName     string
	RouteNumber   string
	StartStopID   string
	StartStopName string
	EndStopID     string
	EndStopName   string
	StopCount     int
}

// Itinerary is an ordered sequence of legs from origin to destination.
// It has either one walk leg or walk, bus, walk.
type Itinerary struct {
	Legs                 []Leg
	TotalDistanceMeters  float64
	TotalDurationMinutes float64

	// Route identification copied from the bus leg; empty for a direct walk.
	RouteID     string
	RouteName   string
	RouteNumber string
	StartStopID string
	EndStopID   string
}

// IsDirectWalk reports whether the itinerary is the single-leg walk.
func (it *Itinerary) IsDirectWalk() bool {
	return len(it.Legs) == 1 && it.Legs[0].Type == LegWalk
}

// Request is a validated planning request.
type Request struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate

	// MaxWalkingDistanceMeters bounds the walk to and from stops. Nil means
	// the service default; zero admits only stops at the endpoints themselves.
	MaxWalkingDistanceMeters *float64

	// Limit caps the number of itineraries. Nil means DefaultLimit; other
	// values are clamped to [MinLimit, MaxLimit].
	Limit *int
}

// Response holds ranked itineraries, fastest first.
type Response struct {
	GeneratedAt time.Time
	Itineraries []Itinerary
}

// Error carries a machine-readable code for request failures.
type Error struct {
	Code    string // Error code, e.g. INVALID_ORIGIN
	Field   string // Request field the error refers to, if any
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
