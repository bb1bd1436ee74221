package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/admin-app/admin-api/internal/observability"
	"github.com/admin-app/admin-api/internal/platform/httpx"
	"github.com/admin-app/admin-api/internal/shared"
	"github.com/admin-app/admin-api/internal/users"
)

// UserLoader resolves the token subject.
type UserLoader interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// Middleware authenticates requests from the session cookie.
type Middleware struct {
	Tokens  *TokenService
	Users   UserLoader
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Require rejects requests without a valid session and stores the user in the context.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			m.reject(w, r, observability.AuthMissing)
			return
		}
		claims, err := m.Tokens.Verify(cookie.Value)
		if err != nil {
			m.reject(w, r, observability.AuthInvalidToken)
			return
		}
		user, err := m.Users.Get(r.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				m.reject(w, r, observability.AuthUnknownUser)
				return
			}
			if m.Logger != nil {
				m.Logger.Error("auth load user", slog.String("user_id", claims.ID), slog.Any("error", err))
			}
			m.reject(w, r, observability.AuthStoreError)
			return
		}
		m.Metrics.RecordAuth(observability.AuthOK)
		next.ServeHTTP(w, r.WithContext(shared.ContextWithUser(r.Context(), user.Principal())))
	})
}

func (m Middleware) reject(w http.ResponseWriter, r *http.Request, outcome string) {
	m.Metrics.RecordAuth(outcome)
	httpx.RespondError(w, r, nil, shared.ErrUnauthenticated)
}
