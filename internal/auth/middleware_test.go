package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admin-app/admin-api/internal/observability"
	"github.com/admin-app/admin-api/internal/shared"
)

const unauthenticatedBody = `{"success":false,"message":"Invalid or missing authentication token","data":null}`

func runAuth(t *testing.T, m Middleware, token string) (*httptest.ResponseRecorder, *shared.CurrentUser) {
	t.Helper()
	var seen *shared.CurrentUser
	h := m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := shared.UserFromContext(r.Context())
		require.True(t, ok)
		seen = &u
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, seen
}

func TestRequireWithoutCookie(t *testing.T) {
	f := newFixture(t)
	metrics := observability.NewMetrics()
	m := Middleware{Tokens: f.tokens, Users: f.accounts, Metrics: metrics}

	rr, seen := runAuth(t, m, "")
	assert.Nil(t, seen)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, unauthenticatedBody, rr.Body.String())

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `admin_auth_checks_total{outcome="missing"} 1`)
}

func TestRequireRejectsBadSessions(t *testing.T) {
	f := newFixture(t)
	m := Middleware{Tokens: f.tokens, Users: f.accounts}

	orphan, err := f.tokens.Issue(Claims{ID: "deleted-user"})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"malformed":    "abc.def.ghi",
		"unknown user": orphan,
	} {
		t.Run(name, func(t *testing.T) {
			rr, seen := runAuth(t, m, token)
			assert.Nil(t, seen)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, unauthenticatedBody, rr.Body.String())
		})
	}
}

func TestRequireStoreFailureIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue(Claims{ID: "u1", Email: "jane@example.com"})
	require.NoError(t, err)
	f.accounts.storeErr = errors.New("pool closed")

	rr, seen := runAuth(t, Middleware{Tokens: f.tokens, Users: f.accounts}, token)
	assert.Nil(t, seen)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotContains(t, rr.Body.String(), "pool closed")
}

func TestRequireStoresUser(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue(Claims{ID: "u1", Email: "jane@example.com"})
	require.NoError(t, err)

	rr, seen := runAuth(t, Middleware{Tokens: f.tokens, Users: f.accounts}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
	assert.Equal(t, "r1", seen.RoleID)
}
