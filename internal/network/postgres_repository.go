package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL network repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the network tables if they don't exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("create network schema: %w", err)
	}
	return nil
}

// ListRoutes retrieves all routes with their stops.
func (r *PostgresRepository) ListRoutes(ctx context.Context) ([]Route, error) {
	rows, err := r.pool.Query(ctx, selectRoutesSQL)
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

	stopRows, err := r.pool.Query(ctx, selectStopsSQL)
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
func (r *PostgresRepository) GetRoute(ctx context.Context, id string) (*Route, error) {
	var route Route
	err := r.pool.QueryRow(ctx, selectRouteSQL, id).Scan(&route.ID, &route.Name, &route.Number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, selectRouteStopsSQL, id)
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
func (r *PostgresRepository) ReplaceNetwork(ctx context.Context, routes []Route) error {
	for i := range routes {
		if err := routes[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, deleteStopsSQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteRoutesSQL); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, route := range routes {
		batch.Queue(insertRouteSQL, route.ID, route.Name, route.Number)
		for _, s := range route.Stops {
			batch.Queue(insertStopSQL, route.ID, s.SequenceIndex, s.ID, s.Name, s.Lat, s.Lon)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert network: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
