package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/admin-app/admin-api/internal/platform/httpx"
	"github.com/admin-app/admin-api/internal/platform/validation"
	"github.com/admin-app/admin-api/internal/shared"
	"github.com/admin-app/admin-api/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authn   func(http.Handler) http.Handler
	cookies CookieOptions
	now     func() time.Time
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, cookies CookieOptions) *Handler {
	return &Handler{logger: logger, service: service, authn: authn, cookies: cookies, now: time.Now}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(validation.Validate(validation.Rules{validation.Body: {Schema: validation.Struct[RegisterBody]()}})).
		Post("/register", h.register)
	r.With(validation.Validate(validation.Rules{validation.Body: {Schema: validation.Struct[LoginBody]()}})).
		Post("/login", h.login)
	r.With(h.authn).Get("/me", h.me)
	r.With(h.authn).Get("/logout", h.logout)
	r.With(validation.Validate(validation.Rules{validation.Body: {Schema: validation.Struct[ProfileBody]()}}), h.authn).
		Patch("/profile", h.updateProfile)
	r.With(validation.Validate(validation.Rules{validation.Body: {Schema: validation.Struct[PasswordBody]()}}), h.authn).
		Patch("/update-password", h.updatePassword)
}

// RegisterBody is the self-service signup payload.
type RegisterBody struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=100,has_upper,has_digit"`
}

func (b *RegisterBody) Normalize() {
	validation.TrimSpace(&b.FirstName, &b.LastName)
	b.Email = validation.NormalizeEmail(b.Email)
}

// LoginBody is the credentials payload.
type LoginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=100"`
}

func (b *LoginBody) Normalize() {
	b.Email = validation.NormalizeEmail(b.Email)
}

// ProfileBody is a partial profile update; at least one field is required.
type ProfileBody struct {
	FirstName *string `json:"first_name" validate:"omitnil,min=1,max=50"`
	LastName  *string `json:"last_name" validate:"omitnil,min=1,max=50"`
	Email     *string `json:"email" validate:"omitnil,email"`
}

func (b *ProfileBody) Normalize() {
	validation.TrimSpace(b.FirstName, b.LastName)
	if b.Email != nil {
		email := validation.NormalizeEmail(*b.Email)
		b.Email = &email
	}
}

func (b *ProfileBody) Refine() []validation.Issue {
	if b.FirstName == nil && b.LastName == nil && b.Email == nil {
		return []validation.Issue{{Message: "At least one field must be provided"}}
	}
	return nil
}

// PasswordBody replaces the current user's password.
type PasswordBody struct {
	Password        string `json:"password" validate:"required,min=8,max=100,has_upper,has_digit"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (b *PasswordBody) Refine() []validation.Issue {
	if b.Password != b.ConfirmPassword {
		return []validation.Issue{{Message: "Passwords do not match", Path: "confirm_password"}}
	}
	return nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	in := validation.Parsed[RegisterBody](r, validation.Body)
	user, err := h.service.Register(r.Context(), users.RegisterInput(in))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "User registered successfully", user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	in := validation.Parsed[LoginBody](r, validation.Body)
	session, err := h.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	h.cookies.SetSessionCookie(w, session.Token, h.now())
	httpx.Success(w, http.StatusOK, "Login successful.", session.User)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := shared.UserFromContext(r.Context())
	httpx.Success(w, http.StatusOK, "User fetched successfully", user)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSessionCookie(w)
	httpx.Success(w, http.StatusOK, "User logged out successfully", nil)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	current, _ := shared.UserFromContext(r.Context())
	in := validation.Parsed[ProfileBody](r, validation.Body)
	user, err := h.service.UpdateProfile(r.Context(), current.ID, users.ProfilePatch(in))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "User profile updated successfully", user)
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	current, _ := shared.UserFromContext(r.Context())
	in := validation.Parsed[PasswordBody](r, validation.Body)
	if err := h.service.UpdatePassword(r.Context(), current.ID, in.Password); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, "User password updated successfully", nil)
}
