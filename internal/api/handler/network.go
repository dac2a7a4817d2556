package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/breatheroute/tripplanner/internal/api/models"
	"github.com/breatheroute/tripplanner/internal/api/response"
	"github.com/breatheroute/tripplanner/internal/planner"
)

// NetworkHandler exposes the transit network snapshot.
type NetworkHandler struct {
	loader planner.NetworkLoader
	logger zerolog.Logger
}

// NewNetworkHandler creates a new NetworkHandler.
func NewNetworkHandler(loader planner.NetworkLoader, logger zerolog.Logger) *NetworkHandler {
	return &NetworkHandler{loader: loader, logger: logger}
}

// ListRoutes handles GET /v1/network/routes.
func (h *NetworkHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, ok := h.load(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewRouteList(routes))
}

// GetRoute handles GET /v1/network/routes/{routeId}.
func (h *NetworkHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")

	routes, ok := h.load(w, r)
	if !ok {
		return
	}
	for i := range routes {
		if routes[i].ID == routeID {
			response.JSON(w, r, http.StatusOK, models.NewRouteDetail(&routes[i]))
			return
		}
	}
	response.NotFound(w, r, "route "+routeID+" not found")
}

func (h *NetworkHandler) load(w http.ResponseWriter, r *http.Request) ([]planner.Route, bool) {
	routes, err := h.loader.LoadNetwork(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to load transit network")
		response.NetworkUnavailable(w, r, "the transit network could not be loaded, try again later")
		return nil, false
	}
	return routes, true
}
