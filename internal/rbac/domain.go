package rbac

import "time"

// Role groups permissions. Every user references exactly one role. Single-role reads
// always carry Permissions, empty included.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RoleSummary is the listing projection of a role.
type RoleSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary drops the permission set.
func (r Role) Summary() RoleSummary {
	return RoleSummary{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// Permission is a named capability such as view_users.
type Permission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RolePatch is a partial role update. A non-empty PermissionIDs replaces the whole
// permission set; nil or empty leaves it untouched.
type RolePatch struct {
	Name          *string
	PermissionIDs []string
}

// RoleSeed describes a role the seeder provisions.
type RoleSeed struct {
	Name        string
	Permissions []string
}
