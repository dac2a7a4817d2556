package planner

import (
	"github.com/breatheroute/tripplanner/pkg/geo"
)

// Timing constants for synthetic duration estimates.
const (
	WalkingSpeedMPS = 1.4  // ~5 km/h
	BusSpeedMPS     = 8.33 // ~30 km/h
	DwellSeconds    = 30.0 // per stop after boarding
)

// BuildItinerary converts a candidate into a walk, bus, walk itinerary.
func BuildItinerary(c Candidate, origin, destination geo.Coordinate) Itinerary {
	boardAt := c.StartStop.Coordinate()
	alightAt := c.EndStop.Coordinate()

	path := c.path
	if len(path) == 0 {
		path = []geo.Coordinate{boardAt, alightAt}
	}

	rideSeconds := c.RideDistance/BusSpeedMPS + DwellSeconds*float64(c.StopCount-1)

	transit := &TransitDetails{
		RouteID:       c.Route.ID,
		RouteName:     c.Route.Name,
		RouteNumber:   c.Route.Number,
		StartStopID:   c.StartStop.ID,
		StartStopName: c.StartStop.Name,
		EndStopID:     c.EndStop.ID,
		EndStopName:   c.EndStop.Name,
		StopCount:     c.StopCount,
	}

	legs := []Leg{
		walkLeg(origin, boardAt, c.StartDistance),
		{
			Type:            LegBus,
			DistanceMeters:  c.RideDistance,
			DurationMinutes: rideSeconds / 60,
			Start:           boardAt,
			End:             alightAt,
			Path:            path,
			Transit:         transit,
		},
		walkLeg(alightAt, destination, c.EndDistance),
	}

	it := newItinerary(legs)
	it.RouteID = transit.RouteID
	it.RouteName = transit.RouteName
	it.RouteNumber = transit.RouteNumber
	it.StartStopID = transit.StartStopID
	it.EndStopID = transit.EndStopID
	return it
}

// BuildDirectWalk returns the single-leg itinerary walking the full
// great-circle distance from origin to destination.
func BuildDirectWalk(origin, destination geo.Coordinate) Itinerary {
	return newItinerary([]Leg{walkLeg(origin, destination, geo.Distance(origin, destination))})
}

func walkLeg(from, to geo.Coordinate, distance float64) Leg {
	return Leg{
		Type:            LegWalk,
		DistanceMeters:  distance,
		DurationMinutes: distance / WalkingSpeedMPS / 60,
		Start:           from,
		End:             to,
		Path:            []geo.Coordinate{from, to},
	}
}

func newItinerary(legs []Leg) Itinerary {
	it := Itinerary{Legs: legs}
	for _, leg := range legs {
		it.TotalDistanceMeters += leg.DistanceMeters
		it.TotalDurationMinutes += leg.DurationMinutes
	}
	return it
}
