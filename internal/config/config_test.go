package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/tripplanner/internal/config"
)

func lookupFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := config.FromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, config.SourceStatic, cfg.Network.Source)
	assert.Equal(t, 5*time.Minute, cfg.Network.CacheTTL)
	assert.Zero(t, cfg.Network.StaleIfErrorTTL)
	assert.Equal(t, 1000.0, cfg.DefaultMaxWalkMeters)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.RequireTLS)
	assert.False(t, cfg.IsProduction())
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := config.FromLookup(lookupFrom(map[string]string{
		"APP_PORT":                        "9090",
		"APP_ENV":                         "production",
		"OTEL_ENABLED":                    "true",
		"NETWORK_SOURCE":                  "GTFS",
		"NETWORK_GTFS_PATH":               "/data/feed.zip",
		"NETWORK_CACHE_TTL":               "90s",
		"NETWORK_STALE_IF_ERROR_TTL":      "30m",
		"PLANNER_DEFAULT_MAX_WALK_METERS": "750",
		"CORS_ALLOWED_ORIGINS":            "https://a.example, https://b.example,",
		"REQUIRE_TLS":                     "true",
		"PUBSUB_PROJECT_ID":               "transit",
		"PUBSUB_SUBSCRIPTION":             "network-refresh",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, config.SourceGTFS, cfg.Network.Source)
	assert.Equal(t, "/data/feed.zip", cfg.Network.GTFSPath)
	assert.Equal(t, 90*time.Second, cfg.Network.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Network.StaleIfErrorTTL)
	assert.Equal(t, 750.0, cfg.DefaultMaxWalkMeters)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.RequireTLS)
	assert.Equal(t, "network-refresh", cfg.PubSubSubscription)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"unknown source", map[string]string{"NETWORK_SOURCE": "ftp"}},
		{"gtfs without path", map[string]string{"NETWORK_SOURCE": "gtfs"}},
		{"http without url", map[string]string{"NETWORK_SOURCE": "http"}},
		{"bad duration", map[string]string{"NETWORK_CACHE_TTL": "soon"}},
		{"zero ttl", map[string]string{"NETWORK_CACHE_TTL": "0s"}},
		{"bad bool", map[string]string{"OTEL_ENABLED": "maybe"}},
		{"negative walk", map[string]string{"PLANNER_DEFAULT_MAX_WALK_METERS": "-5"}},
		{"walk not a number", map[string]string{"PLANNER_DEFAULT_MAX_WALK_METERS": "far"}},
		{"subscription without project", map[string]string{"PUBSUB_SUBSCRIPTION": "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromLookup(lookupFrom(tt.values))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NETWORK_SOURCE=http\nNETWORK_HTTP_URL=https://feeds.example/network\nAPP_PORT=7000\n"), 0o600))

	// Values already in the environment win over the file.
	t.Setenv("APP_PORT", "7100")
	t.Setenv("NETWORK_SOURCE", "")
	t.Setenv("NETWORK_HTTP_URL", "")
	require.NoError(t, os.Unsetenv("NETWORK_SOURCE"))
	require.NoError(t, os.Unsetenv("NETWORK_HTTP_URL"))

	cfg, err := config.Load(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, config.SourceHTTP, cfg.Network.Source)
	assert.Equal(t, "https://feeds.example/network", cfg.Network.HTTPURL)
}
