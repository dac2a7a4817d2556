package network

// PostgresSchema creates the network tables in PostgreSQL.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS transit_routes (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	number TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transit_route_stops (
	route_id       TEXT NOT NULL REFERENCES transit_routes(id) ON DELETE CASCADE,
	sequence_index INTEGER NOT NULL,
	stop_id        TEXT NOT NULL,
	stop_name      TEXT NOT NULL DEFAULT '',
	lat            DOUBLE PRECISION NOT NULL,
	lon            DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (route_id, sequence_index)
);
`

// SQLiteSchema creates the network tables in SQLite.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS transit_routes (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	number TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transit_route_stops (
	route_id       TEXT NOT NULL REFERENCES transit_routes(id) ON DELETE CASCADE,
	sequence_index INTEGER NOT NULL,
	stop_id        TEXT NOT NULL,
	stop_name      TEXT NOT NULL DEFAULT '',
	lat            REAL NOT NULL,
	lon            REAL NOT NULL,
	PRIMARY KEY (route_id, sequence_index)
);
`

const (
	selectRoutesSQL = `SELECT id, name, number FROM transit_routes ORDER BY id`

	selectStopsSQL = `
		SELECT route_id, stop_id, stop_name, lat, lon, sequence_index
		FROM transit_route_stops
		ORDER BY route_id, sequence_index
	`

	selectRouteSQL = `SELECT id, name, number FROM transit_routes WHERE id = $1`

	selectRouteStopsSQL = `
		SELECT stop_id, stop_name, lat, lon, sequence_index
		FROM transit_route_stops
		WHERE route_id = $1
		ORDER BY sequence_index
	`

	deleteRoutesSQL = `DELETE FROM transit_routes`
	deleteStopsSQL  = `DELETE FROM transit_route_stops`

	insertRouteSQL = `INSERT INTO transit_routes (id, name, number) VALUES ($1, $2, $3)`

	insertStopSQL = `
		INSERT INTO transit_route_stops (route_id, sequence_index, stop_id, stop_name, lat, lon)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
)

// attachStops groups stop rows onto routes by route ID.
func attachStops(routes []Route, stops map[string][]Stop) []Route {
	for i := range routes {
		routes[i].Stops = stops[routes[i].ID]
	}
	return routes
}
