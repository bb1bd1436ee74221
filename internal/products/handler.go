package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/admin-app/admin-api/internal/platform/httpx"
	"github.com/admin-app/admin-api/internal/platform/validation"
	"github.com/admin-app/admin-api/internal/rbac"
	"github.com/admin-app/admin-api/internal/shared"
)

// Handler serves product endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authn   func(http.Handler) http.Handler
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authn: authn, rbac: rbac}
}

// ProductBody is the create and replace payload.
type ProductBody struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=255"`
	Image       *Image `json:"image" validate:"omitnil"`
	Price       int    `json:"price" validate:"min=0"`
}

func (b *ProductBody) Normalize() {
	validation.TrimSpace(&b.Title, &b.Description)
	if b.Image != nil {
		validation.TrimSpace(&b.Image.URL, &b.Image.Alt)
	}
}

func (b ProductBody) product() Product {
	return Product{Title: b.Title, Description: b.Description, Image: b.Image, Price: b.Price}
}

var (
	listRules = validation.Rules{validation.Query: {Schema: validation.Struct[ListFilters]()}}
	bodyRules = validation.Rules{validation.Body: {Schema: validation.Struct[ProductBody]()}}
	idRules   = validation.Rules{validation.Params: {Schema: validation.Struct[rbac.IDParams]()}}
)

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(validation.Validate(listRules), h.authn, h.rbac.RequireAny(shared.PermProductsView)).Get("/", h.list)
	r.With(validation.Validate(bodyRules), h.authn, h.rbac.RequireAll(shared.PermProductsEdit)).Post("/", h.create)
	r.With(validation.Validate(idRules), h.authn, h.rbac.RequireAny(shared.PermProductsView)).Get("/{id}", h.get)
	r.With(
		validation.Validate(validation.Rules{
			validation.Params: {Schema: validation.Struct[rbac.IDParams]()},
			validation.Body:   {Schema: validation.Struct[ProductBody]()},
		}),
		h.authn,
		h.rbac.RequireAll(shared.PermProductsEdit),
	).Put("/{id}", h.update)
	r.With(validation.Validate(idRules), h.authn, h.rbac.RequireAll(shared.PermProductsEdit)).Delete("/{id}", h.delete)
}

type productList struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := validation.Parsed[ListFilters](r, validation.Query)
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Products fetched successfully", productList{Products: list, Count: total})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in := validation.Parsed[ProductBody](r, validation.Body)
	product, err := h.service.Create(r.Context(), in.product())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Product created successfully", product)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[rbac.IDParams](r, validation.Params)
	product, err := h.service.Get(r.Context(), params.ID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Product fetched successfully", product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[rbac.IDParams](r, validation.Params)
	in := validation.Parsed[ProductBody](r, validation.Body)
	product, err := h.service.Update(r.Context(), params.ID, in.product())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Product updated successfully", product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	params := validation.Parsed[rbac.IDParams](r, validation.Params)
	if err := h.service.Delete(r.Context(), params.ID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}
