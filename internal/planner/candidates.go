package planner

import (
	"math"

	"github.com/breatheroute/tripplanner/pkg/geo"
)

// nearbyStop is a stop together with its walking distance to a point.
type nearbyStop struct {
	index    int // position within Route.Stops
	stop     Stop
	distance float64
}

// GenerateCandidates returns every feasible boarding/alighting pair across
// routes. A pair is feasible when both stops are within maxWalk meters of the
// origin and destination respectively, the alighting stop comes later in the
// route's sequence, and the ride distance is finite and positive.
// Routes with fewer than two stops are skipped.
func GenerateCandidates(routes []Route, origin, destination geo.Coordinate, maxWalk float64) []Candidate {
	var candidates []Candidate

	for i := range routes {
		route := &routes[i]
		if len(route.Stops) < 2 {
			continue
		}

		boarding := stopsWithin(route.Stops, origin, maxWalk)
		if len(boarding) == 0 {
			continue
		}

		alighting := stopsWithin(route.Stops, destination, maxWalk)
		if len(alighting) == 0 {
			continue
		}

		for _, from := range boarding {
			for _, to := range alighting {
				if to.stop.SequenceIndex <= from.stop.SequenceIndex {
					continue
				}

				path := stopPath(route.Stops[from.index : to.index+1])
				ride := geo.PathLength(path)
				if math.IsNaN(ride) || math.IsInf(ride, 0) || ride <= 0 {
					continue
				}

				candidates = append(candidates, Candidate{
					Route:         route,
					StartStop:     from.stop,
					EndStop:       to.stop,
					StartDistance: from.distance,
					EndDistance:   to.distance,
					RideDistance:  ride,
					StopCount:     to.stop.SequenceIndex - from.stop.SequenceIndex + 1,
					path:          path,
				})
			}
		}
	}

	return candidates
}

// stopsWithin returns the stops within maxWalk meters of p, in route order.
func stopsWithin(stops []Stop, p geo.Coordinate, maxWalk float64) []nearbyStop {
	var nearby []nearbyStop
	for i, s := range stops {
		d := geo.Distance(p, s.Coordinate())
		if d <= maxWalk {
			nearby = append(nearby, nearbyStop{index: i, stop: s, distance: d})
		}
	}
	return nearby
}

func stopPath(stops []Stop) []geo.Coordinate {
	path := make([]geo.Coordinate, len(stops))
	for i, s := range stops {
		path[i] = s.Coordinate()
	}
	return path
}
