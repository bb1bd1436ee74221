package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/admin-app/admin-api/internal/shared"
)

// InternalMessage is the only text a client ever sees for an unexpected failure.
const InternalMessage = "Something went wrong"

type errorMapping struct {
	kind    error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{shared.ErrValidation, http.StatusUnprocessableEntity, "Kindly provide valid payload"},
	{shared.ErrUnauthenticated, http.StatusUnauthorized, "Invalid or missing authentication token"},
	{shared.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{shared.ErrForbidden, http.StatusForbidden, "You do not have permission to perform this action"},
	{shared.ErrNotFound, http.StatusNotFound, "Resource not found"},
	{shared.ErrConflict, http.StatusConflict, "Resource already exists"},
	{shared.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many login attempts, try again later"},
}

// StatusFor returns the HTTP status and client message an error maps to.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.status, shared.UserSafeMessage(err, m.message)
		}
	}
	return http.StatusInternalServerError, InternalMessage
}

// RespondError maps domain errors to the failure envelope. Unmapped errors are logged
// and answered with a generic 500.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, message := StatusFor(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
	Fail(w, status, message)
}
