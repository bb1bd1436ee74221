package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/admin-app/admin-api/internal/platform/httpx"
	"github.com/admin-app/admin-api/internal/shared"
)

// PermissionSource resolves the permission names of a role.
type PermissionSource interface {
	RolePermissionNames(ctx context.Context, roleID string) ([]string, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers. It must run after
// authentication has stored the current user in the request context.
type Middleware struct {
	Service PermissionSource
	Logger  *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require("rbac require any", normalizePermissions(perms), hasAnyPermission)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require("rbac require all", normalizePermissions(perms), hasAllPermissions)
}

func (m Middleware) require(op string, required []string, allowed func(granted, required []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			user, ok := shared.UserFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, r, m.Logger, shared.ErrUnauthenticated)
				return
			}
			granted, err := m.Service.RolePermissionNames(r.Context(), user.RoleID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error(op, slog.String("role_id", user.RoleID), slog.Any("error", err))
				}
				httpx.RespondError(w, r, nil, err)
				return
			}
			if allowed(granted, required) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.RespondError(w, r, m.Logger, shared.ErrForbidden)
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func permissionSet(granted []string) map[string]struct{} {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	return set
}

func hasAnyPermission(granted []string, required []string) bool {
	set := permissionSet(granted)
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	set := permissionSet(granted)
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
