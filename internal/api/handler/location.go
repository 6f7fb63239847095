package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/location"
)

// LocationHandler handles saved location endpoints.
type LocationHandler struct {
	store  *location.Service
	logger zerolog.Logger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(store *location.Service, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		store:  store,
		logger: logger,
	}
}

// ListLocations handles GET /v1/locations - saved places sorted by name.
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("listing locations failed")
		response.InternalError(w, r, "listing locations failed")
		return
	}

	locations := make([]*models.Location, 0, len(records))
	for _, rec := range records {
		locations = append(locations, models.NewLocation(rec))
	}
	response.JSON(w, r, http.StatusOK, locations)
}

// ToggleFavorite handles POST /v1/locations/{locationId}/favorite.
func (h *LocationHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.locationID(w, r)
	if !ok {
		return
	}

	rec, err := h.store.ToggleFavorite(r.Context(), id)
	if err != nil {
		if errors.Is(err, location.ErrNotFound) {
			response.NotFound(w, r, "location not found")
			return
		}
		h.logger.Error().Err(err).
			Int("location_id", id).
			Str("device_id", middleware.GetDeviceID(r.Context())).
			Msg("toggling favorite failed")
		response.InternalError(w, r, "toggling favorite failed")
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewLocation(rec))
}

// DeleteLocation handles DELETE /v1/locations/{locationId}.
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.locationID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, location.ErrNotFound) {
			response.NotFound(w, r, "location not found")
			return
		}
		h.logger.Error().Err(err).
			Int("location_id", id).
			Str("device_id", middleware.GetDeviceID(r.Context())).
			Msg("deleting location failed")
		response.InternalError(w, r, "deleting location failed")
		return
	}
	response.NoContent(w, r)
}

func (h *LocationHandler) locationID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "locationId"))
	if err != nil {
		response.BadRequest(w, r, "locationId must be an integer", []models.FieldError{
			{Field: "locationId", Message: "must be an integer", Code: "type"},
		})
		return 0, false
	}
	return id, true
}
