package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/pipeline"
	"github.com/skycast/skycast/internal/weather"
)

// SessionHandler handles weather session endpoints.
type SessionHandler struct {
	sessions *pipeline.Manager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *pipeline.Manager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// CreateSession handles POST /v1/sessions - create a session and run
// the pipeline once.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	pipelineReq, fieldErrs := sessionRequest(req)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrs)
		return
	}

	sess := h.sessions.Create(pipelineReq)
	sess.Run(r.Context())

	response.Created(w, r, "/v1/sessions/"+sess.ID(), models.NewSessionState(sess.Snapshot()))
}

// GetSession handles GET /v1/sessions/{sessionId} - current snapshot.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		response.NotFound(w, r, "session not found")
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewSessionState(sess.Snapshot()))
}

// RetrySession handles POST /v1/sessions/{sessionId}/retry - re-run the
// pipeline, optionally with a new explicit coordinate.
func (h *SessionHandler) RetrySession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		response.NotFound(w, r, "session not found")
		return
	}

	var req models.RetrySessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	explicit, fieldErrs := coordinate(req.Lat, req.Lon)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrs)
		return
	}

	sess.Retry(r.Context(), explicit)
	response.JSON(w, r, http.StatusOK, models.NewSessionState(sess.Snapshot()))
}

// sessionRequest maps the create body onto a pipeline request.
func sessionRequest(req models.CreateSessionRequest) (pipeline.Request, []models.FieldError) {
	explicit, fieldErrs := coordinate(req.Lat, req.Lon)
	if len(fieldErrs) > 0 {
		return pipeline.Request{}, fieldErrs
	}
	if explicit != nil && req.LocationID != nil {
		return pipeline.Request{}, []models.FieldError{
			{Field: "locationId", Message: "must not be combined with lat/lon", Code: "conflict"},
		}
	}
	return pipeline.Request{Explicit: explicit, LocationID: req.LocationID}, nil
}

// coordinate validates an optional lat/lon pair. Both or neither must
// be present.
func coordinate(lat, lon *float64) (*weather.Coordinate, []models.FieldError) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, []models.FieldError{
			{Field: "lat", Message: "lat and lon must be given together", Code: "required"},
		}
	}
	coord := weather.Coordinate{Lat: *lat, Lon: *lon}
	if !coord.Valid() {
		return nil, []models.FieldError{
			{Field: "lat", Message: "coordinate out of range", Code: "range"},
		}
	}
	return &coord, nil
}
