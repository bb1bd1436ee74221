package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/admin-app/admin-api/internal/testing/guard"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &Config{
		AppEnv:             "test",
		JWTSecret:          "test-secret",
		TokenTTL:           24 * time.Hour,
		BcryptCost:         4,
		RateLimitPerMinute: 1000,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	services, err := NewServices(cfg, logger, nil, nil)
	require.NoError(t, err)
	return NewRouter(services.RouterParams(cfg, logger))
}

func TestGuardEnablesTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newTestRouter(t)
	for _, target := range []string{"/api/users", "/api/roles", "/api/permissions", "/api/products", "/api/auth/me"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
		assert.JSONEq(t, `{"success":false,"message":"Invalid or missing authentication token","data":null}`, rr.Body.String(), target)
	}
}

func TestValidationRunsBeforeAuthentication(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/roles?page=0", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"path":"page"`)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found","data":null}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `admin_auth_checks_total{outcome="missing"} 1`)
}
