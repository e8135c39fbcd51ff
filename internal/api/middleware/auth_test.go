package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/direwolf2494/CMS-Basic/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func signedToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, JWTSecret: testJWTSecret}
	protected := AuthMiddleware(cfg, testLogger)(okHandler())

	t.Run("Success - Valid Bearer Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customer", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, testJWTSecret, time.Now().Add(time.Hour)))
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Error - Missing Authorization Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customer", nil)
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"name":"Unauthorized"`)
	})

	t.Run("Error - Malformed Authorization Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customer", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Error - Token Signed With Wrong Secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customer", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "wrong-secret", time.Now().Add(time.Hour)))
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Error - Expired Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customer", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, testJWTSecret, time.Now().Add(-time.Hour)))
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Disabled Auth Passes Everything Through", func(t *testing.T) {
		open := AuthMiddleware(config.AuthConfig{Enabled: false}, testLogger)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/customer", nil)
		rr := httptest.NewRecorder()

		open.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
