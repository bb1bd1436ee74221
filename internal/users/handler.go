package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/admin-app/admin-api/internal/platform/httpx"
	"github.com/admin-app/admin-api/internal/platform/validation"
	"github.com/admin-app/admin-api/internal/rbac"
	"github.com/admin-app/admin-api/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authn   func(http.Handler) http.Handler
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance. authn must reject unauthenticated requests.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authn: authn, rbac: rbac}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(
		validation.Validate(validation.Rules{validation.Query: {Schema: validation.Struct[shared.PageRequest]()}}),
		h.authn,
		h.rbac.RequireAny(shared.PermUsersView),
	).Get("/", h.listUsers)
	r.With(
		validation.Validate(validation.Rules{validation.Body: {Schema: validation.Struct[CreateUserBody]()}}),
		h.authn,
		h.rbac.RequireAny(shared.PermUsersEdit),
	).Post("/", h.createUser)
}

// CreateUserBody is the administrative account creation payload.
type CreateUserBody struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=100,has_upper,has_digit"`
	RoleID    string `json:"role_id" validate:"required,uuid"`
}

func (b *CreateUserBody) Normalize() {
	validation.TrimSpace(&b.FirstName, &b.LastName)
	b.Email = validation.NormalizeEmail(b.Email)
}

type userList struct {
	Users []User `json:"users"`
	Count int    `json:"count"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page := validation.Parsed[shared.PageRequest](r, validation.Query)
	list, total, err := h.service.List(r.Context(), page)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Users fetched successfully.", userList{Users: list, Count: total})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	in := validation.Parsed[CreateUserBody](r, validation.Body)
	user, err := h.service.Create(r.Context(), CreateInput(in))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "User created successfully", user)
}
