package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// IssueToken handles POST /v1/auth/token - exchange a device id for a
// bearer token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	token, expiresAt, err := h.authService.GenerateToken(req.DeviceID)
	if err != nil {
		if errors.Is(err, auth.ErrEmptyDevice) {
			response.BadRequest(w, r, "deviceId is required", []models.FieldError{
				{Field: "deviceId", Message: "must not be empty", Code: "required"},
			})
			return
		}
		response.InternalError(w, r, "token issuance failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresAt: models.Timestamp(expiresAt),
	})
}
