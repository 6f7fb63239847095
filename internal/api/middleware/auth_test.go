package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/auth"
)

func authTestService() *auth.Service {
	return auth.NewService(auth.Config{
		SigningKey: "middleware-test-key",
		Issuer:     "https://api.skycast.test",
		Audience:   "skycast-api",
	})
}

func protected(t *testing.T, svc *auth.Service) (http.Handler, *string) {
	t.Helper()
	var deviceID string
	handler := Auth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID = GetDeviceID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &deviceID
}

func TestAuth_ValidToken(t *testing.T) {
	svc := authTestService()
	handler, deviceID := protected(t, svc)

	token, _, err := svc.GenerateToken("device-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "device-42", *deviceID)
}

func TestAuth_MissingHeader(t *testing.T) {
	handler, _ := protected(t, authTestService())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestAuth_MalformedHeader(t *testing.T) {
	handler, _ := protected(t, authTestService())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	handler, _ := protected(t, authTestService())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_TokenFromOtherKey(t *testing.T) {
	other := auth.NewService(auth.Config{
		SigningKey: "different-key",
		Issuer:     "https://api.skycast.test",
		Audience:   "skycast-api",
	})
	token, _, err := other.GenerateToken("device-42")
	require.NoError(t, err)

	handler, _ := protected(t, authTestService())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
