package geo

import (
	"math"
	"testing"
)

func TestDistance_CoincidentPoints(t *testing.T) {
	points := []Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 52.3676, Lon: 4.9041},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 90, Lon: 180},
	}

	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%+v, %+v) = %f, want 0", p, p, d)
		}
	}
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]Coordinate{
		{{Lat: 52.3676, Lon: 4.9041}, {Lat: 52.0907, Lon: 5.1214}},
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}},
		{{Lat: -45, Lon: 170}, {Lat: 45, Lon: -170}},
		{{Lat: 89.9, Lon: 0}, {Lat: -89.9, Lon: 180}},
	}

	for _, p := range pairs {
		ab := Distance(p[0], p[1])
		ba := Distance(p[1], p[0])
		if math.Abs(ab-ba) > 1e-6 {
			t.Errorf("asymmetric distance for %+v: %f vs %f", p, ab, ba)
		}
	}
}

func TestDistance_KnownValues(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Coordinate
		want      float64
		tolerance float64
	}{
		{
			name:      "0.01 degree of longitude on the equator",
			a:         Coordinate{Lat: 0, Lon: 0},
			b:         Coordinate{Lat: 0, Lon: 0.01},
			want:      1111.95,
			tolerance: 0.1,
		},
		{
			name:      "Amsterdam to Utrecht",
			a:         Coordinate{Lat: 52.3676, Lon: 4.9041},
			b:         Coordinate{Lat: 52.0907, Lon: 5.1214},
			want:      34000,
			tolerance: 1000,
		},
		{
			name:      "quarter meridian",
			a:         Coordinate{Lat: 0, Lon: 0},
			b:         Coordinate{Lat: 90, Lon: 0},
			want:      math.Pi / 2 * EarthRadiusMeters,
			tolerance: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Distance() = %f, want %f ± %f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestPathLength(t *testing.T) {
	if got := PathLength(nil); got != 0 {
		t.Errorf("PathLength(nil) = %f, want 0", got)
	}
	if got := PathLength([]Coordinate{{Lat: 1, Lon: 1}}); got != 0 {
		t.Errorf("PathLength(single) = %f, want 0", got)
	}

	path := []Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0.02}}
	want := Distance(path[0], path[1]) + Distance(path[1], path[2])
	if got := PathLength(path); math.Abs(got-want) > 1e-9 {
		t.Errorf("PathLength() = %f, want %f", got, want)
	}
}

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		c    Coordinate
		want bool
	}{
		{Coordinate{Lat: 0, Lon: 0}, true},
		{Coordinate{Lat: 90, Lon: 180}, true},
		{Coordinate{Lat: -90, Lon: -180}, true},
		{Coordinate{Lat: 90.1, Lon: 0}, false},
		{Coordinate{Lat: 0, Lon: -180.5}, false},
	}

	for _, tt := range tests {
		if got := tt.c.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.c, got, tt.want)
		}
	}
}
