// Package remote fetches the transit network from HTTP providers: a JSON
// network endpoint or a published GTFS archive.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/breatheroute/tripplanner/internal/network"
	"github.com/breatheroute/tripplanner/internal/network/gtfs"
	"github.com/breatheroute/tripplanner/internal/provider/resilience"
)

const (
	// ProviderName identifies the JSON network provider.
	ProviderName = "network-api"

	// GTFSProviderName identifies the GTFS archive provider.
	GTFSProviderName = "gtfs-feed"

	// maxArchiveBytes bounds a downloaded GTFS archive.
	maxArchiveBytes = 256 << 20
)

// ErrUnexpectedStatus indicates the provider answered with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected provider status")

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the JSON network client.
type ClientConfig struct {
	// BaseURL is the provider base URL; the network is read from {BaseURL}/v1/network.
	BaseURL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Registry receives provider health when the default client is used.
	Registry *resilience.Registry
}

// Client reads the network snapshot from a JSON endpoint.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new network API client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

type networkResponse struct {
	Routes []network.Route `json:"routes"`
}

// ListRoutes fetches and validates every route.
func (c *Client) ListRoutes(ctx context.Context) ([]network.Route, error) {
	body, err := fetch(ctx, c.httpClient, c.baseURL+"/v1/network", "application/json")
	if err != nil {
		return nil, err
	}

	var payload networkResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode network response: %w", err)
	}

	for i := range payload.Routes {
		if err := payload.Routes[i].Validate(); err != nil {
			return nil, err
		}
	}
	return payload.Routes, nil
}

var _ network.Source = (*Client)(nil)

// GTFSFeed downloads a GTFS archive and parses it on every read.
type GTFSFeed struct {
	url        string
	httpClient HTTPDoer
}

// NewGTFSFeed creates a feed for the archive at url. A nil httpClient gets a
// resilient client registered with registry.
func NewGTFSFeed(url string, httpClient HTTPDoer, registry *resilience.Registry) *GTFSFeed {
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(GTFSProviderName)
		rc.Timeout = 2 * time.Minute
		rc.Registry = registry
		httpClient = resilience.NewClient(rc)
	}
	return &GTFSFeed{url: url, httpClient: httpClient}
}

// ListRoutes downloads the archive and builds routes from it.
func (f *GTFSFeed) ListRoutes(ctx context.Context) ([]network.Route, error) {
	body, err := fetch(ctx, f.httpClient, f.url, "application/zip")
	if err != nil {
		return nil, err
	}
	return gtfs.Parse(ctx, bytes.NewReader(body), int64(len(body)))
}

var _ network.Source = (*GTFSFeed)(nil)

func fetch(ctx context.Context, doer HTTPDoer, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := doer.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxArchiveBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, maxArchiveBytes)
	}
	return body, nil
}
