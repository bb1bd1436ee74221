package users

import (
	"time"

	"github.com/admin-app/admin-api/internal/shared"
)

// User is an account as served to clients. The password hash never leaves the repository
// except through Credentials.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	RoleID    string    `json:"role_id"`
	Role      *RoleRef  `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleRef is the role summary embedded in user listings.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Principal converts u into the request-scoped identity.
func (u User) Principal() shared.CurrentUser {
	return shared.CurrentUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName,
		Email:     u.Email,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Credentials is the login projection of a user.
type Credentials struct {
	ID           string
	Email        string
	PasswordHash string
}

// NewUser is the insert payload. PasswordHash must already be hashed.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	RoleID       string
}

// Filter selects users by id or email. Empty fields are ignored; an empty Filter matches nothing.
type Filter struct {
	ID    string
	Email string
}

// IsEmpty reports whether f has no criteria.
func (f Filter) IsEmpty() bool {
	return f.ID == "" && f.Email == ""
}

// Patch lists the columns to update. Nil fields are left untouched.
type Patch struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
	RoleID       *string
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.PasswordHash == nil && p.RoleID == nil
}

// RegisterInput is a self-service signup.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// CreateInput is an administrative account creation with an explicit role.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	RoleID    string
}

// ProfilePatch is a partial profile update of the current user.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}
