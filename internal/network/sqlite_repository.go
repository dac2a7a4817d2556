package network

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var pgPlaceholder = regexp.MustCompile(`\$\d+`)

// rebind rewrites PostgreSQL placeholders to SQLite's positional form.
func rebind(query string) string {
	return pgPlaceholder.ReplaceAllString(query, "?")
}

// OpenSQLite opens a SQLite database with WAL journaling and foreign keys.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// SQLiteRepository is a SQLite implementation of Repository.
// Writes are serialized; SQLite allows a single writer.
type SQLiteRepository struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// NewSQLiteRepository creates a new SQLite network repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureSchema creates the network tables if they don't exist.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("create network schema: %w", err)
	}
	return nil
}

// ListRoutes retrieves all routes with their stops.
func (r *SQLiteRepository) ListRoutes(ctx context.Context) ([]Route, error) {
	rows, err := r.db.QueryContext(ctx, selectRoutesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var route Route
		if err := rows.Scan(&route.ID, &route.Name, &route.Number); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	stopRows, err := r.db.QueryContext(ctx, selectStopsSQL)
	if err != nil {
		return nil, err
	}
	defer stopRows.Close()

	stops := make(map[string][]Stop)
	for stopRows.Next() {
		var (
			routeID string
			stop    Stop
		)
		if err := stopRows.Scan(&routeID, &stop.ID, &stop.Name, &stop.Lat, &stop.Lon, &stop.SequenceIndex); err != nil {
			return nil, err
		}
		stops[routeID] = append(stops[routeID], stop)
	}
	if err := stopRows.Err(); err != nil {
		return nil, err
	}

	return attachStops(routes, stops), nil
}

// GetRoute retrieves a route by ID.
func (r *SQLiteRepository) GetRoute(ctx context.Context, id string) (*Route, error) {
	var route Route
	err := r.db.QueryRowContext(ctx, rebind(selectRouteSQL), id).Scan(&route.ID, &route.Name, &route.Number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, rebind(selectRouteStopsSQL), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var stop Stop
		if err := rows.Scan(&stop.ID, &stop.Name, &stop.Lat, &stop.Lon, &stop.SequenceIndex); err != nil {
			return nil, err
		}
		route.Stops = append(route.Stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &route, nil
}

// ReplaceNetwork replaces all routes and stops in a single transaction.
func (r *SQLiteRepository) ReplaceNetwork(ctx context.Context, routes []Route) error {
	for i := range routes {
		if err := routes[i].Validate(); err != nil {
			return err
		}
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteStopsSQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteRoutesSQL); err != nil {
		return err
	}

	routeStmt, err := tx.PrepareContext(ctx, rebind(insertRouteSQL))
	if err != nil {
		return err
	}
	defer routeStmt.Close()

	stopStmt, err := tx.PrepareContext(ctx, rebind(insertStopSQL))
	if err != nil {
		return err
	}
	defer stopStmt.Close()

	for _, route := range routes {
		if _, err := routeStmt.ExecContext(ctx, route.ID, route.Name, route.Number); err != nil {
			return fmt.Errorf("insert route %s: %w", route.ID, err)
		}
		for _, s := range route.Stops {
			if _, err := stopStmt.ExecContext(ctx, route.ID, s.SequenceIndex, s.ID, s.Name, s.Lat, s.Lon); err != nil {
				return fmt.Errorf("insert stop %s on route %s: %w", s.ID, route.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ Repository = (*SQLiteRepository)(nil)
