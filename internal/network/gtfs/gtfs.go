// Package gtfs builds a transit network from a static GTFS feed.
//
// Each (route, direction) pair becomes one network route whose stops follow
// the trip that serves the most stops in that direction.
package gtfs

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/breatheroute/tripplanner/internal/network"
)

// ErrMissingFile indicates a required GTFS file is absent from the archive.
var ErrMissingFile = errors.New("gtfs file missing")

// Feed reads routes from a GTFS zip archive on disk.
type Feed struct {
	path   string
	logger zerolog.Logger
}

// NewFeed creates a feed for the archive at path.
func NewFeed(path string, logger zerolog.Logger) *Feed {
	return &Feed{path: path, logger: logger}
}

// ListRoutes parses the archive and returns one route per route direction.
func (f *Feed) ListRoutes(ctx context.Context) ([]network.Route, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open gtfs feed: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat gtfs feed: %w", err)
	}

	routes, err := Parse(ctx, file, info.Size())
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Str("path", f.path).
		Int("routes", len(routes)).
		Msg("parsed gtfs feed")

	return routes, nil
}

var _ network.Source = (*Feed)(nil)

type gtfsRoute struct {
	shortName string
	longName  string
}

type gtfsTrip struct {
	id        string
	routeID   string
	direction string
	headsign  string
}

type stopTime struct {
	stopID   string
	sequence int
}

// Parse reads routes.txt, stops.txt, trips.txt and stop_times.txt from a GTFS
// archive and assembles network routes ordered by ID.
func Parse(ctx context.Context, r io.ReaderAt, size int64) ([]network.Route, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open gtfs archive: %w", err)
	}

	files := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		files[f.Name] = f
	}

	routes := make(map[string]gtfsRoute)
	err = readTable(files, "routes.txt", func(row record) error {
		routes[row.get("route_id")] = gtfsRoute{
			shortName: row.get("route_short_name"),
			longName:  row.get("route_long_name"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stops := make(map[string]network.Stop)
	err = readTable(files, "stops.txt", func(row record) error {
		lat, latErr := strconv.ParseFloat(row.get("stop_lat"), 64)
		lon, lonErr := strconv.ParseFloat(row.get("stop_lon"), 64)
		if latErr != nil || lonErr != nil {
			return nil
		}
		id := row.get("stop_id")
		stops[id] = network.Stop{ID: id, Name: row.get("stop_name"), Lat: lat, Lon: lon}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trips := make(map[string]gtfsTrip)
	err = readTable(files, "trips.txt", func(row record) error {
		id := row.get("trip_id")
		trips[id] = gtfsTrip{
			id:        id,
			routeID:   row.get("route_id"),
			direction: row.get("direction_id"),
			headsign:  row.get("trip_headsign"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tripStops := make(map[string][]stopTime)
	err = readTable(files, "stop_times.txt", func(row record) error {
		seq, err := strconv.Atoi(row.get("stop_sequence"))
		if err != nil {
			return nil
		}
		tripID := row.get("trip_id")
		tripStops[tripID] = append(tripStops[tripID], stopTime{stopID: row.get("stop_id"), sequence: seq})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return assemble(routes, stops, trips, tripStops), nil
}

// assemble picks the longest trip per route direction and lays out its stops.
func assemble(routes map[string]gtfsRoute, stops map[string]network.Stop, trips map[string]gtfsTrip, tripStops map[string][]stopTime) []network.Route {
	best := make(map[string]gtfsTrip)
	for _, trip := range trips {
		if _, ok := routes[trip.routeID]; !ok {
			continue
		}
		key := routeKey(trip)
		current, ok := best[key]
		if !ok || longerTrip(trip, current, tripStops) {
			best[key] = trip
		}
	}

	out := make([]network.Route, 0, len(best))
	for key, trip := range best {
		times := tripStops[trip.id]
		sort.SliceStable(times, func(i, j int) bool { return times[i].sequence < times[j].sequence })

		route := routes[trip.routeID]
		nr := network.Route{
			ID:     key,
			Name:   routeName(route, trip),
			Number: route.shortName,
		}
		for _, st := range times {
			stop, ok := stops[st.stopID]
			if !ok {
				continue
			}
			stop.SequenceIndex = len(nr.Stops)
			nr.Stops = append(nr.Stops, stop)
		}
		out = append(out, nr)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func routeKey(t gtfsTrip) string {
	if t.direction == "" {
		return t.routeID
	}
	return t.routeID + ":" + t.direction
}

// longerTrip orders trips by stop count, then trip ID for determinism.
func longerTrip(a, b gtfsTrip, tripStops map[string][]stopTime) bool {
	na, nb := len(tripStops[a.id]), len(tripStops[b.id])
	if na != nb {
		return na > nb
	}
	return a.id < b.id
}

func routeName(r gtfsRoute, t gtfsTrip) string {
	switch {
	case r.longName != "":
		return r.longName
	case t.headsign != "":
		return t.headsign
	default:
		return r.shortName
	}
}

// record is a CSV row addressed by header name.
type record struct {
	index  map[string]int
	fields []string
}

func (r record) get(name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// readTable streams the rows of a GTFS file into fn.
func readTable(files map[string]*zip.File, name string, fn func(record) error) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingFile, name)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read %s header: %w", name, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := fn(record{index: index, fields: fields}); err != nil {
			return err
		}
	}
}
