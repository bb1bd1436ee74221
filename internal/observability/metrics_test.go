package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordLogin(LoginFailed)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `admin_login_attempts_total{outcome="failed"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/roles")

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("/api/roles", "418")))

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(metricsRR.Body.String(), `admin_http_request_duration_seconds_bucket{route="/api/roles"`))
}

func TestRecordAuthOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordAuth(AuthOK)
	metrics.RecordAuth(AuthMissing)
	metrics.RecordAuth(AuthMissing)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.authTotal.WithLabelValues(AuthOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.authTotal.WithLabelValues(AuthMissing)))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordAuth(AuthOK) })
}
