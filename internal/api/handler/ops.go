package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/breatheroute/tripplanner/internal/api/models"
	"github.com/breatheroute/tripplanner/internal/api/response"
	"github.com/breatheroute/tripplanner/internal/network"
	"github.com/breatheroute/tripplanner/internal/planner"
	"github.com/breatheroute/tripplanner/internal/provider/resilience"
)

// readinessTimeout bounds the snapshot load performed by the readiness probe.
const readinessTimeout = 5 * time.Second

// CacheStatter reports network snapshot cache state.
type CacheStatter interface {
	Stats() network.CacheStats
}

// ProviderLister reports upstream provider health.
type ProviderLister interface {
	All() []resilience.Health
}

// RefreshReporter reports background refresh metrics.
type RefreshReporter interface {
	MetricsSnapshot() map[string]interface{}
}

// OpsConfig holds the dependencies of the operational endpoints. Only
// Version and BuildTime are required.
type OpsConfig struct {
	Version   string
	BuildTime string
	Network   planner.NetworkLoader
	Cache     CacheStatter
	Providers ProviderLister
	Refresh   RefreshReporter
	Now       func() time.Time
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.cfg.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// transit network snapshot loads.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.cfg.Now()),
	}

	if h.cfg.Network != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		routes, err := h.cfg.Network.LoadNetwork(ctx)
		if err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"network": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
		health.Details = map[string]interface{}{"routes": len(routes)}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - snapshot cache and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.cfg.Now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Cache != nil {
		status.Subsystems = append(status.Subsystems, cacheStatus(h.cfg.Cache.Stats()))
	}
	if h.cfg.Providers != nil {
		for _, p := range h.cfg.Providers.All() {
			status.Providers = append(status.Providers, providerStatus(p))
		}
	}
	if h.cfg.Refresh != nil {
		status.Refresh = h.cfg.Refresh.MetricsSnapshot()
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, p := range status.Providers {
		status.Status = worst(status.Status, p.Status)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func cacheStatus(stats network.CacheStats) models.SubsystemStatus {
	s := models.SubsystemStatus{
		Name:   "network-snapshot",
		Status: models.HealthStatusOK,
		Details: map[string]interface{}{
			"routes":      stats.Routes,
			"stops":       stats.Stops,
			"hits":        stats.Hits,
			"misses":      stats.Misses,
			"loads":       stats.Loads,
			"failures":    stats.Failures,
			"staleServed": stats.StaleServed,
		},
	}
	if stats.HasData {
		s.Details["loadedAt"] = models.Timestamp(stats.LoadedAt)
		s.Details["expiresAt"] = models.Timestamp(stats.ExpiresAt)
	}

	switch {
	case !stats.HasData && stats.Failures > 0:
		s.Status = models.HealthStatusFail
	case !stats.HasData:
		s.Status = models.HealthStatusDegraded
		s.Detail = strPtr("snapshot not loaded yet")
	case stats.LastError != "":
		s.Status = models.HealthStatusDegraded
	}
	if stats.LastError != "" {
		s.Detail = strPtr(stats.LastError)
	}
	return s
}

func providerStatus(h resilience.Health) models.ProviderStatus {
	p := models.ProviderStatus{
		Provider:     h.Name,
		CircuitState: h.State.String(),
		Requests:     h.Counts.Requests,
		Failures:     h.Counts.ConsecutiveFailures,
	}
	switch h.Status() {
	case "healthy":
		p.Status = models.HealthStatusOK
	case "degraded":
		p.Status = models.HealthStatusDegraded
	default:
		p.Status = models.HealthStatusFail
	}
	if h.LastSuccessAt != nil {
		ts := models.Timestamp(*h.LastSuccessAt)
		p.LastSuccessAt = &ts
	}
	if h.LastFailureAt != nil {
		ts := models.Timestamp(*h.LastFailureAt)
		p.LastFailureAt = &ts
	}
	if h.LastError != "" {
		p.Message = strPtr(h.LastError)
	}
	return p
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

func strPtr(s string) *string {
	return &s
}
