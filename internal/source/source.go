// Package source opens the configured transit network source for the API
// server and the import worker.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/breatheroute/tripplanner/internal/config"
	"github.com/breatheroute/tripplanner/internal/database"
	"github.com/breatheroute/tripplanner/internal/network"
	"github.com/breatheroute/tripplanner/internal/network/gtfs"
	"github.com/breatheroute/tripplanner/internal/network/remote"
	"github.com/breatheroute/tripplanner/internal/provider/resilience"
)

// ErrUnknownSource indicates an unsupported source kind.
var ErrUnknownSource = errors.New("unknown network source")

// Options holds what Open needs besides the source kind.
type Options struct {
	Network config.NetworkConfig

	// Database configures the pool for postgres sources.
	Database database.Config

	// Registry receives provider health for HTTP-backed sources (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Source is an opened network source. Repository is set for sources that
// can also be written, and Close releases any underlying connection.
type Source struct {
	Kind       config.NetworkSource
	Source     network.Source
	Repository network.Repository

	closers []func() error
}

// Close releases the connections held by the source.
func (s *Source) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Loader adapts the source to the planner's snapshot loader.
func (s *Source) Loader() network.SourceLoader {
	return network.SourceLoader{Source: s.Source}
}

// Open opens the network source of the given kind. Database-backed sources
// have their schema created if missing.
func Open(ctx context.Context, kind config.NetworkSource, opts Options) (*Source, error) {
	src := &Source{Kind: kind}
	log := opts.Logger.With().Str("network_source", string(kind)).Logger()

	switch kind {
	case config.SourceStatic:
		repo := network.NewInMemoryRepository(network.DemoNetwork()...)
		src.Source, src.Repository = repo, repo
		log.Warn().Msg("serving the built-in demo network")

	case config.SourcePostgres:
		pool, err := database.Connect(ctx, opts.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		src.closers = append(src.closers, closePool(pool))

		repo := network.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = src.Close()
			return nil, err
		}
		src.Source, src.Repository = repo, repo
		log.Info().Msg("postgres network repository ready")

	case config.SourceSQLite:
		db, err := network.OpenSQLite(ctx, opts.Network.SQLitePath)
		if err != nil {
			return nil, err
		}
		src.closers = append(src.closers, closeDB(db))

		repo := network.NewSQLiteRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = src.Close()
			return nil, err
		}
		src.Source, src.Repository = repo, repo
		log.Info().Str("path", opts.Network.SQLitePath).Msg("sqlite network repository ready")

	case config.SourceGTFS:
		path := opts.Network.GTFSPath
		if isURL(path) {
			src.Source = remote.NewGTFSFeed(path, nil, opts.Registry)
		} else {
			src.Source = gtfs.NewFeed(path, opts.Logger)
		}
		log.Info().Str("path", path).Msg("gtfs network feed configured")

	case config.SourceHTTP:
		src.Source = remote.NewClient(remote.ClientConfig{
			BaseURL:  opts.Network.HTTPURL,
			Registry: opts.Registry,
		})
		log.Info().Str("url", opts.Network.HTTPURL).Msg("http network provider configured")

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}

	return src, nil
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func closePool(pool *pgxpool.Pool) func() error {
	return func() error {
		pool.Close()
		return nil
	}
}

func closeDB(db *sql.DB) func() error {
	return db.Close
}
