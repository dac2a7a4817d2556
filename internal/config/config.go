// Package config loads service configuration from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig indicates a configuration value is missing or malformed.
var ErrInvalidConfig = errors.New("invalid configuration")

// NetworkSource selects where the transit network is read from.
type NetworkSource string

// Supported network sources.
const (
	SourcePostgres NetworkSource = "postgres"
	SourceSQLite   NetworkSource = "sqlite"
	SourceGTFS     NetworkSource = "gtfs"
	SourceHTTP     NetworkSource = "http"
	SourceStatic   NetworkSource = "static"
)

// Config holds the service configuration.
type Config struct {
	Port        string
	Environment string

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	Network NetworkConfig

	// DefaultMaxWalkMeters applies when a plan request omits the walking limit.
	DefaultMaxWalkMeters float64

	CORSAllowedOrigins []string
	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	PubSubProjectID    string
	PubSubSubscription string
}

// NetworkConfig configures the network snapshot source and cache.
type NetworkConfig struct {
	Source NetworkSource

	SQLitePath string
	// GTFSPath is a local archive path or an http(s) URL.
	GTFSPath string
	HTTPURL  string

	CacheTTL        time.Duration
	StaleIfErrorTTL time.Duration

	// ImportSource is the feed the worker copies into the database.
	ImportSource NetworkSource
	// RefreshInterval triggers periodic worker refreshes; zero disables them.
	RefreshInterval time.Duration
}

// Load reads the given .env files, ignoring missing ones, and then builds the
// configuration from the process environment. Variables already set in the
// environment take precedence over file values.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from a variable lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	env := reader{lookup: lookup}

	cfg := Config{
		Port:            env.str("APP_PORT", "8080"),
		Environment:     env.str("APP_ENV", "development"),
		OTelEnabled:     env.boolean("OTEL_ENABLED", false),
		OTLPEndpoint:    env.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: env.float("OTEL_SAMPLE_RATIO", 1),
		Network: NetworkConfig{
			Source:          NetworkSource(strings.ToLower(env.str("NETWORK_SOURCE", string(SourceStatic)))),
			SQLitePath:      env.str("NETWORK_SQLITE_PATH", "tripplanner.db"),
			GTFSPath:        env.str("NETWORK_GTFS_PATH", ""),
			HTTPURL:         env.str("NETWORK_HTTP_URL", ""),
			CacheTTL:        env.duration("NETWORK_CACHE_TTL", 5*time.Minute),
			StaleIfErrorTTL: env.duration("NETWORK_STALE_IF_ERROR_TTL", 0),
			ImportSource:    NetworkSource(strings.ToLower(env.str("NETWORK_IMPORT_SOURCE", string(SourceGTFS)))),
			RefreshInterval: env.duration("NETWORK_REFRESH_INTERVAL", 0),
		},
		DefaultMaxWalkMeters: env.float("PLANNER_DEFAULT_MAX_WALK_METERS", 1000),
		CORSAllowedOrigins:   env.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RequireTLS:           env.boolean("REQUIRE_TLS", false),
		PubSubProjectID:      env.str("PUBSUB_PROJECT_ID", ""),
		PubSubSubscription:   env.str("PUBSUB_SUBSCRIPTION", ""),
	}

	if env.err != nil {
		return Config{}, env.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Network.Source {
	case SourcePostgres, SourceStatic:
	case SourceSQLite:
		if c.Network.SQLitePath == "" {
			return fmt.Errorf("%w: NETWORK_SQLITE_PATH is required for sqlite", ErrInvalidConfig)
		}
	case SourceGTFS:
		if c.Network.GTFSPath == "" {
			return fmt.Errorf("%w: NETWORK_GTFS_PATH is required for gtfs", ErrInvalidConfig)
		}
	case SourceHTTP:
		if c.Network.HTTPURL == "" {
			return fmt.Errorf("%w: NETWORK_HTTP_URL is required for http", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown NETWORK_SOURCE %q", ErrInvalidConfig, c.Network.Source)
	}

	if c.Network.CacheTTL <= 0 {
		return fmt.Errorf("%w: NETWORK_CACHE_TTL must be positive", ErrInvalidConfig)
	}
	if c.DefaultMaxWalkMeters <= 0 {
		return fmt.Errorf("%w: PLANNER_DEFAULT_MAX_WALK_METERS must be positive", ErrInvalidConfig)
	}
	if c.PubSubSubscription != "" && c.PubSubProjectID == "" {
		return fmt.Errorf("%w: PUBSUB_PROJECT_ID is required with PUBSUB_SUBSCRIPTION", ErrInvalidConfig)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// reader parses variables and keeps the first error.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, value, err)
	}
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
