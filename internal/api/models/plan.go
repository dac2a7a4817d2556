package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/breatheroute/tripplanner/internal/planner"
	"github.com/breatheroute/tripplanner/pkg/geo"
)

// PlanRequest is the body of POST /v1/plans as received on the wire.
type PlanRequest struct {
	Origin                   *LocationInput `json:"origin"`
	Destination              *LocationInput `json:"destination"`
	MaxWalkingDistanceMeters LooseNumber    `json:"maxWalkingDistanceMeters"`
	Limit                    LooseNumber    `json:"limit"`
}

// LocationInput is a coordinate object whose members may have any JSON type.
type LocationInput struct {
	Latitude  LooseNumber `json:"latitude"`
	Longitude LooseNumber `json:"longitude"`

	// NotObject is set when the value was present but not a JSON object.
	NotObject bool `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler for LocationInput.
func (l *LocationInput) UnmarshalJSON(data []byte) error {
	*l = LocationInput{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		l.NotObject = true
		return nil
	}
	type plain LocationInput
	return json.Unmarshal(trimmed, (*plain)(l))
}

// ToPlanner converts the wire request into a planner.Request. Absent or
// non-numeric limit and walking distance fall back to planner defaults.
// Any field errors mean the request must be rejected.
func (r *PlanRequest) ToPlanner() (planner.Request, []FieldError) {
	var errs []FieldError
	origin, errs := coordinateInput("origin", r.Origin, errs)
	destination, errs := coordinateInput("destination", r.Destination, errs)

	req := planner.Request{
		Origin:      origin,
		Destination: destination,
	}
	if r.MaxWalkingDistanceMeters.IsNumber {
		maxWalk := r.MaxWalkingDistanceMeters.Value
		req.MaxWalkingDistanceMeters = &maxWalk
	}
	if r.Limit.IsNumber {
		limit := clampToInt(r.Limit.Value)
		req.Limit = &limit
	}

	for _, p := range req.Problems() {
		if hasFieldError(errs, p.Field) {
			continue
		}
		errs = append(errs, FieldError{Field: p.Field, Message: p.Message, Code: p.Code})
	}
	return req, errs
}

func coordinateInput(field string, in *LocationInput, errs []FieldError) (geo.Coordinate, []FieldError) {
	if in == nil {
		return geo.Coordinate{}, append(errs, FieldError{Field: field, Message: "required", Code: CodeRequired})
	}
	if in.NotObject {
		return geo.Coordinate{}, append(errs, FieldError{Field: field, Message: "must be an object", Code: CodeInvalidType})
	}
	errs = numberInput(field+".latitude", in.Latitude, errs)
	errs = numberInput(field+".longitude", in.Longitude, errs)
	return geo.Coordinate{Lat: in.Latitude.Value, Lon: in.Longitude.Value}, errs
}

func numberInput(field string, n LooseNumber, errs []FieldError) []FieldError {
	switch {
	case !n.Present:
		return append(errs, FieldError{Field: field, Message: "required", Code: CodeRequired})
	case !n.IsNumber:
		return append(errs, FieldError{Field: field, Message: "must be a number", Code: CodeInvalidType})
	}
	return errs
}

// hasFieldError reports whether errs already covers field or one of its parents.
func hasFieldError(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field || strings.HasPrefix(field, e.Field+".") {
			return true
		}
	}
	return false
}

// clampToInt truncates v toward zero within [planner.MinLimit, planner.MaxLimit].
func clampToInt(v float64) int {
	switch {
	case v >= planner.MaxLimit:
		return planner.MaxLimit
	case v <= planner.MinLimit:
		return planner.MinLimit
	}
	return int(math.Trunc(v))
}

// PlanResponse is the body returned by POST /v1/plans.
type PlanResponse struct {
	GeneratedAt Timestamp   `json:"generatedAt"`
	Itineraries []Itinerary `json:"itineraries"`
}

// Itinerary is one ranked plan.
type Itinerary struct {
	Legs                 []Leg   `json:"legs"`
	TotalDistanceMeters  float64 `json:"totalDistanceMeters"`
	TotalDurationMinutes float64 `json:"totalDurationMinutes"`
	RouteID              string  `json:"routeId,omitempty"`
	RouteName            string  `json:"routeName,omitempty"`
	RouteNumber          string  `json:"routeNumber,omitempty"`
	StartStopID          string  `json:"startStopId,omitempty"`
	EndStopID            string  `json:"endStopId,omitempty"`
}

// Leg is a walk or bus segment.
type Leg struct {
	Type             string     `json:"type"`
	DistanceMeters   float64    `json:"distanceMeters"`
	DurationMinutes  float64    `json:"durationMinutes"`
	Start            Coordinate `json:"start"`
	End              Coordinate `json:"end"`
	GeometryPolyline string     `json:"geometryPolyline,omitempty"`
	RouteID          string     `json:"routeId,omitempty"`
	RouteName        string     `json:"routeName,omitempty"`
	RouteNumber      string     `json:"routeNumber,omitempty"`
	StartStopID      string     `json:"startStopId,omitempty"`
	StartStopName    string     `json:"startStopName,omitempty"`
	EndStopID        string     `json:"endStopId,omitempty"`
	EndStopName      string     `json:"endStopName,omitempty"`
	StopCount        int        `json:"stopCount,omitempty"`
}

// NewPlanResponse converts a planner response to its wire form.
func NewPlanResponse(resp *planner.Response) PlanResponse {
	out := PlanResponse{
		GeneratedAt: Timestamp(resp.GeneratedAt),
		Itineraries: make([]Itinerary, len(resp.Itineraries)),
	}
	for i := range resp.Itineraries {
		it := &resp.Itineraries[i]
		legs := make([]Leg, len(it.Legs))
		for j := range it.Legs {
			legs[j] = newLeg(&it.Legs[j])
		}
		out.Itineraries[i] = Itinerary{
			Legs:                 legs,
			TotalDistanceMeters:  it.TotalDistanceMeters,
			TotalDurationMinutes: it.TotalDurationMinutes,
			RouteID:              it.RouteID,
			RouteName:            it.RouteName,
			RouteNumber:          it.RouteNumber,
			StartStopID:          it.StartStopID,
			EndStopID:            it.EndStopID,
		}
	}
	return out
}

func newLeg(l *planner.Leg) Leg {
	leg := Leg{
		Type:            string(l.Type),
		DistanceMeters:  l.DistanceMeters,
		DurationMinutes: l.DurationMinutes,
		Start:           Coordinate{Latitude: l.Start.Lat, Longitude: l.Start.Lon},
		End:             Coordinate{Latitude: l.End.Lat, Longitude: l.End.Lon},
	}
	if len(l.Path) > 0 {
		leg.GeometryPolyline = geo.EncodePolyline(l.Path)
	}
	if t := l.Transit; t != nil {
		leg.RouteID = t.RouteID
		leg.RouteName = t.RouteName
		leg.RouteNumber = t.RouteNumber
		leg.StartStopID = t.StartStopID
		leg.StartStopName = t.StartStopName
		leg.EndStopID = t.EndStopID
		leg.EndStopName = t.EndStopName
		leg.StopCount = t.StopCount
	}
	return leg
}
