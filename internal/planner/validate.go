package planner

import (
	"math"

	"github.com/breatheroute/tripplanner/pkg/geo"
)

// Validation error codes.
const (
	CodeInvalidCoordinate   = "INVALID_COORDINATE"
	CodeInvalidWalkDistance = "INVALID_WALK_DISTANCE"
)

// Problems lists every validation failure in r. Each error wraps
// ErrInvalidRequest.
func (r Request) Problems() []*Error {
	var problems []*Error
	problems = appendCoordinateProblems(problems, "origin", r.Origin)
	problems = appendCoordinateProblems(problems, "destination", r.Destination)

	if w := r.MaxWalkingDistanceMeters; w != nil && (*w < 0 || math.IsNaN(*w) || math.IsInf(*w, 0)) {
		problems = append(problems, &Error{
			Code:    CodeInvalidWalkDistance,
			Field:   "maxWalkingDistanceMeters",
			Message: "must be a non-negative number",
			Err:     ErrInvalidRequest,
		})
	}
	return problems
}

// Validate returns the first problem in r, or nil.
func (r Request) Validate() error {
	if problems := r.Problems(); len(problems) > 0 {
		return problems[0]
	}
	return nil
}

func appendCoordinateProblems(problems []*Error, field string, c geo.Coordinate) []*Error {
	if !(c.Lat >= -90 && c.Lat <= 90) {
		problems = append(problems, &Error{
			Code:    CodeInvalidCoordinate,
			Field:   field + ".latitude",
			Message: "must be between -90 and 90",
			Err:     ErrInvalidRequest,
		})
	}
	if !(c.Lon >= -180 && c.Lon <= 180) {
		problems = append(problems, &Error{
			Code:    CodeInvalidCoordinate,
			Field:   field + ".longitude",
			Message: "must be between -180 and 180",
			Err:     ErrInvalidRequest,
		})
	}
	return problems
}
