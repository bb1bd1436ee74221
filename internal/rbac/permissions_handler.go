package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/admin-app/admin-api/internal/platform/httpx"
	"github.com/admin-app/admin-api/internal/platform/validation"
	"github.com/admin-app/admin-api/internal/shared"
)

// PermissionsHandler manages permission endpoints.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
	authn   func(http.Handler) http.Handler
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, authn: authn, rbac: rbac}
}

// PermissionBody is the create payload.
type PermissionBody struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (b *PermissionBody) Normalize() {
	validation.TrimSpace(&b.Name)
}

// IDParams validates an {id} route parameter.
type IDParams struct {
	ID string `json:"id" validate:"required,uuid"`
}

var idRules = validation.Rules{validation.Params: {Schema: validation.Struct[IDParams]()}}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.authn, h.rbac.RequireAny(shared.PermRolesView)).Get("/", h.listPermissions)
	r.With(
		validation.Validate(validation.Rules{validation.Body: {Schema: validation.Struct[PermissionBody]()}}),
		h.authn,
		h.rbac.RequireAll(shared.PermRolesEdit),
	).Post("/", h.createPermission)
	r.With(validation.Validate(idRules), h.authn, h.rbac.RequireAny(shared.PermRolesView)).Get("/{id}", h.getPermission)
	r.With(validation.Validate(idRules), h.authn, h.rbac.RequireAll(shared.PermRolesEdit)).Delete("/{id}", h.deletePermission)
}

type permissionList struct {
	Permissions []Permission `json:"permissions"`
	Count       int          `json:"count"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permissions fetched successfully", permissionList{Permissions: perms, Count: len(perms)})
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	in := validation.Parsed[PermissionBody](r, validation.Body)
	perm, err := h.service.CreatePermission(r.Context(), in.Name)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Permission created successfully", perm)
}

func (h *PermissionsHandler) getPermission(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[IDParams](r, validation.Params)
	perm, err := h.service.GetPermission(r.Context(), params.ID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permission fetched successfully", perm)
}

func (h *PermissionsHandler) deletePermission(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[IDParams](r, validation.Params)
	if err := h.service.DeletePermission(r.Context(), params.ID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}
