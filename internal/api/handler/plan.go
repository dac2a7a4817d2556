// Package handler provides HTTP handlers for the trip planner API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/breatheroute/tripplanner/internal/api/middleware"
	"github.com/breatheroute/tripplanner/internal/api/models"
	"github.com/breatheroute/tripplanner/internal/api/response"
	"github.com/breatheroute/tripplanner/internal/planner"
)

// Planner plans itineraries for validated requests.
type Planner interface {
	PlanItineraries(ctx context.Context, req planner.Request) (*planner.Response, error)
}

// PlanHandler handles itinerary planning.
type PlanHandler struct {
	planner Planner
	logger  zerolog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(p Planner, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{planner: p, logger: logger}
}

// CreatePlan handles POST /v1/plans.
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var body models.PlanRequest
	if !response.DecodeJSON(w, r, &body) {
		return
	}

	req, fieldErrs := body.ToPlanner()
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "plan request failed validation", fieldErrs)
		return
	}

	plan, err := h.planner.PlanItineraries(r.Context(), req)
	if err != nil {
		h.writePlanError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewPlanResponse(plan))
}

func (h *PlanHandler) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	var planErr *planner.Error
	switch {
	case errors.As(err, &planErr) && errors.Is(err, planner.ErrInvalidRequest):
		response.BadRequest(w, r, "plan request failed validation", []models.FieldError{
			{Field: planErr.Field, Message: planErr.Message, Code: planErr.Code},
		})
	case r.Context().Err() != nil:
		// The client is gone, so nothing is written.
		h.logger.Debug().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("plan request canceled by client")
	case errors.Is(err, planner.ErrNetworkUnavailable):
		h.logger.Warn().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("plan rejected: transit network unavailable")
		response.NetworkUnavailable(w, r, "the transit network could not be loaded, try again later")
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("plan failed")
		response.InternalError(w, r, "failed to plan itineraries")
	}
}
