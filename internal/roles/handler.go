// Package roles exposes the role management HTTP endpoints on top of the RBAC service.
package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/admin-app/admin-api/internal/platform/httpx"
	"github.com/admin-app/admin-api/internal/platform/validation"
	"github.com/admin-app/admin-api/internal/rbac"
	"github.com/admin-app/admin-api/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *rbac.Service
	authn   func(http.Handler) http.Handler
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *rbac.Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authn: authn, rbac: rbac}
}

// CreateRoleBody is the role creation payload.
type CreateRoleBody struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,uuid"`
}

func (b *CreateRoleBody) Normalize() {
	validation.TrimSpace(&b.Name)
}

// UpdateRoleBody is the partial role update payload. An empty permissions list leaves the
// current set untouched.
type UpdateRoleBody struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=255"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,uuid"`
}

func (b *UpdateRoleBody) Normalize() {
	validation.TrimSpace(b.Name)
}

func (b *UpdateRoleBody) Refine() []validation.Issue {
	if b.Name == nil && b.Permissions == nil {
		return []validation.Issue{{Message: "At least one field must be provided"}}
	}
	return nil
}

var (
	pageRules = validation.Rules{validation.Query: {Schema: validation.Struct[shared.PageRequest]()}}
	idRules   = validation.Rules{validation.Params: {Schema: validation.Struct[rbac.IDParams]()}}
)

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(validation.Validate(pageRules), h.authn, h.rbac.RequireAny(shared.PermRolesView)).Get("/", h.listRoles)
	r.With(
		validation.Validate(validation.Rules{validation.Body: {Schema: validation.Struct[CreateRoleBody]()}}),
		h.authn,
		h.rbac.RequireAll(shared.PermRolesEdit),
	).Post("/", h.createRole)
	r.With(validation.Validate(idRules), h.authn, h.rbac.RequireAny(shared.PermRolesView)).Get("/{id}", h.getRole)

	update := r.With(
		validation.Validate(validation.Rules{
			validation.Params: {Schema: validation.Struct[rbac.IDParams]()},
			validation.Body:   {Schema: validation.Struct[UpdateRoleBody]()},
		}),
		h.authn,
		h.rbac.RequireAll(shared.PermRolesEdit),
	)
	update.Put("/{id}", h.updateRole)
	update.Patch("/{id}", h.updateRole)

	r.With(validation.Validate(idRules), h.authn, h.rbac.RequireAll(shared.PermRolesEdit)).Delete("/{id}", h.deleteRole)
}

type roleList struct {
	Roles []rbac.RoleSummary `json:"roles"`
	Count int         `json:"count"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	page := validation.Parsed[shared.PageRequest](r, validation.Query)
	roles, total, err := h.service.ListRoles(r.Context(), page)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Roles fetched successfully", roleList{Roles: summaries(roles), Count: total})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	in := validation.Parsed[CreateRoleBody](r, validation.Body)
	role, err := h.service.CreateRole(r.Context(), in.Name, in.Permissions)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Role created successfully", role)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[rbac.IDParams](r, validation.Params)
	role, err := h.service.GetRole(r.Context(), params.ID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role fetched successfully", role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[rbac.IDParams](r, validation.Params)
	in := validation.Parsed[UpdateRoleBody](r, validation.Body)
	role, err := h.service.UpdateRole(r.Context(), params.ID, rbac.RolePatch{Name: in.Name, PermissionIDs: in.Permissions})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role updated Successfully", role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[rbac.IDParams](r, validation.Params)
	if err := h.service.DeleteRole(r.Context(), params.ID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func summaries(roles []rbac.Role) []rbac.RoleSummary {
	out := make([]rbac.RoleSummary, len(roles))
	for i, role := range roles {
		out[i] = role.Summary()
	}
	return out
}
