package gtfs_test

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/tripplanner/internal/network/gtfs"
)

func buildFeed(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func sampleFeed() map[string]string {
	return map[string]string{
		"routes.txt": "\ufeffroute_id,route_short_name,route_long_name,route_type\n" +
			"R1,12,Centraal - Sloterdijk,3\n" +
			"R2,N5,,3\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,Centraal,52.3791,4.9003\n" +
			"S2,Dam,52.3730,4.8932\n" +
			"S3,Westermarkt,52.3752,4.8840\n" +
			"S4,Sloterdijk,52.3889,4.8378\n" +
			"BAD,Broken,north,east\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id\n" +
			"R1,WD,T1,Sloterdijk,0\n" +
			"R1,WD,T2,Sloterdijk,0\n" +
			"R1,WD,T3,Centraal,1\n" +
			"R2,WD,T4,Night Loop,\n" +
			"UNKNOWN,WD,T5,Nowhere,0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			// T1 is a short-working trip.
			"T1,08:00:00,08:00:00,S1,1\n" +
			"T1,08:04:00,08:04:00,S2,2\n" +
			// T2 serves every stop, listed out of order.
			"T2,09:10:00,09:10:00,S4,40\n" +
			"T2,09:00:00,09:00:00,S1,10\n" +
			"T2,09:06:00,09:06:00,S3,30\n" +
			"T2,09:03:00,09:03:00,S2,20\n" +
			"T3,10:00:00,10:00:00,S4,1\n" +
			"T3,10:10:00,10:10:00,S1,2\n" +
			"T4,23:00:00,23:00:00,S2,1\n" +
			"T4,23:05:00,23:05:00,BAD,2\n" +
			"T4,23:10:00,23:10:00,S3,3\n" +
			"T5,07:00:00,07:00:00,S1,1\n",
	}
}

func TestParse_BuildsRoutePerDirection(t *testing.T) {
	data := buildFeed(t, sampleFeed())

	routes, err := gtfs.Parse(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, routes, 3)

	outbound := routes[0]
	assert.Equal(t, "R1:0", outbound.ID)
	assert.Equal(t, "Centraal - Sloterdijk", outbound.Name)
	assert.Equal(t, "12", outbound.Number)
	require.Len(t, outbound.Stops, 4)
	for i, id := range []string{"S1", "S2", "S3", "S4"} {
		assert.Equal(t, id, outbound.Stops[i].ID)
		assert.Equal(t, i, outbound.Stops[i].SequenceIndex)
	}
	assert.Equal(t, 52.3791, outbound.Stops[0].Lat)

	inbound := routes[1]
	assert.Equal(t, "R1:1", inbound.ID)
	require.Len(t, inbound.Stops, 2)
	assert.Equal(t, "S4", inbound.Stops[0].ID)

	// No direction id; unparseable stops are dropped and indexes stay contiguous.
	night := routes[2]
	assert.Equal(t, "R2", night.ID)
	assert.Equal(t, "Night Loop", night.Name)
	require.Len(t, night.Stops, 2)
	assert.Equal(t, "S3", night.Stops[1].ID)
	assert.Equal(t, 1, night.Stops[1].SequenceIndex)

	for i := range routes {
		assert.NoError(t, routes[i].Validate())
	}
}

func TestParse_MissingFile(t *testing.T) {
	files := sampleFeed()
	delete(files, "stop_times.txt")
	data := buildFeed(t, files)

	_, err := gtfs.Parse(context.Background(), bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, gtfs.ErrMissingFile)
}

func TestParse_NotAZip(t *testing.T) {
	data := []byte("definitely not a zip")
	_, err := gtfs.Parse(context.Background(), bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestFeed_ListRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(path, buildFeed(t, sampleFeed()), 0o600))

	feed := gtfs.NewFeed(path, zerolog.Nop())
	routes, err := feed.ListRoutes(context.Background())
	require.NoError(t, err)
	assert.Len(t, routes, 3)
}

func TestFeed_MissingArchive(t *testing.T) {
	feed := gtfs.NewFeed(filepath.Join(t.TempDir(), "absent.zip"), zerolog.Nop())
	_, err := feed.ListRoutes(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
