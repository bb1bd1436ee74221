package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admin-app/admin-api/internal/rbac"
	"github.com/admin-app/admin-api/internal/shared"
)

type grantedNames []string

func (g grantedNames) RolePermissionNames(ctx context.Context, roleID string) ([]string, error) {
	return g, nil
}

func asAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.ContextWithUser(r.Context(), shared.CurrentUser{ID: "admin", RoleID: "role-admin"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newUsersRouter(repo *memRepo, granted ...string) http.Handler {
	h := NewHandler(nil, NewService(repo, prefixHasher{}, shared.RoleViewer), asAdmin, rbac.Middleware{Service: grantedNames(granted)})
	r := chi.NewRouter()
	r.Route("/api/users", h.MountRoutes)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details []struct {
		Message string `json:"message"`
		Path    string `json:"path"`
	} `json:"details"`
}

func do(t *testing.T, h http.Handler, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return rr.Code, env
}

func TestCreateAndListUsers(t *testing.T) {
	repo := newMemRepo()
	h := newUsersRouter(repo, shared.PermUsersView, shared.PermUsersEdit)

	code, env := do(t, h, http.MethodPost, "/api/users", `{
		"first_name": " Grace ",
		"last_name": "Hopper",
		"email": " Grace@Example.com ",
		"password": "Secret123",
		"role_id": "0b7c6f1e-2f2d-4c55-9a57-2f8d2a6f4a11"
	}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User created successfully", env.Message)
	assert.NotContains(t, string(env.Data), "Secret123")

	var created User
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "grace@example.com", created.Email)
	assert.Equal(t, "Grace", created.FirstName)
	assert.Equal(t, "hashed:Secret123", repo.users[created.ID].hash)

	code, env = do(t, h, http.MethodGet, "/api/users?page=1&pagesize=10", "")
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Users []User `json:"users"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Count)
	assert.Len(t, list.Users, 1)
}

func TestCreateUserDuplicateEmailConflicts(t *testing.T) {
	repo := newMemRepo()
	h := newUsersRouter(repo, shared.PermUsersEdit)
	body := `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","password":"Secret123","role_id":"0b7c6f1e-2f2d-4c55-9a57-2f8d2a6f4a11"}`

	code, _ := do(t, h, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, code)

	code, env := do(t, h, http.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Len(t, repo.users, 1)
}

func TestListUsersValidatesPagination(t *testing.T) {
	h := newUsersRouter(newMemRepo(), shared.PermUsersView)

	code, env := do(t, h, http.MethodGet, "/api/users?page=0&pagesize=500", "")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	paths := make([]string, 0, len(env.Details))
	for _, d := range env.Details {
		paths = append(paths, d.Path)
	}
	assert.ElementsMatch(t, []string{"page", "pagesize"}, paths)
}

func TestListUsersRequiresViewPermission(t *testing.T) {
	h := newUsersRouter(newMemRepo(), shared.PermProductsView)
	code, env := do(t, h, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You do not have permission to perform this action", env.Message)
}
