package planner

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/tripplanner/pkg/geo"
)

func TestRequest_Problems(t *testing.T) {
	valid := geo.Coordinate{Lat: 52.37, Lon: 4.89}

	tests := []struct {
		name   string
		req    Request
		fields []string
	}{
		{
			name: "valid",
			req:  Request{Origin: valid, Destination: valid},
		},
		{
			name:   "origin latitude out of range",
			req:    Request{Origin: geo.Coordinate{Lat: 91, Lon: 0}, Destination: valid},
			fields: []string{"origin.latitude"},
		},
		{
			name:   "destination longitude out of range",
			req:    Request{Origin: valid, Destination: geo.Coordinate{Lat: 0, Lon: -181}},
			fields: []string{"destination.longitude"},
		},
		{
			name:   "NaN coordinate",
			req:    Request{Origin: geo.Coordinate{Lat: math.NaN(), Lon: math.NaN()}, Destination: valid},
			fields: []string{"origin.latitude", "origin.longitude"},
		},
		{
			name:   "negative walking distance",
			req:    Request{Origin: valid, Destination: valid, MaxWalkingDistanceMeters: floatPtr(-1)},
			fields: []string{"maxWalkingDistanceMeters"},
		},
		{
			name: "boundary values",
			req:  Request{Origin: geo.Coordinate{Lat: -90, Lon: 180}, Destination: geo.Coordinate{Lat: 90, Lon: -180}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.req.Problems()
			fields := make([]string, 0, len(problems))
			for _, p := range problems {
				fields = append(fields, p.Field)
				assert.ErrorIs(t, p, ErrInvalidRequest)
			}
			if len(tt.fields) == 0 {
				assert.Empty(t, fields)
				assert.NoError(t, tt.req.Validate())
				return
			}
			assert.Equal(t, tt.fields, fields)
			assert.Error(t, tt.req.Validate())
		})
	}
}

func TestService_RejectsInvalidRequestBeforeLoading(t *testing.T) {
	loader := &staticLoader{}
	svc := newTestService(loader)

	_, err := svc.PlanItineraries(context.Background(), Request{
		Origin:      geo.Coordinate{Lat: 120, Lon: 0},
		Destination: geo.Coordinate{Lat: 0, Lon: 0},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	var planErr *Error
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, CodeInvalidCoordinate, planErr.Code)
	assert.Equal(t, "origin.latitude", planErr.Field)
	assert.Equal(t, int32(0), loader.callCount.Load())
}
