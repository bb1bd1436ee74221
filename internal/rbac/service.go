package rbac

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/admin-app/admin-api/internal/shared"
)

// PermissionCacheTTL bounds how stale a role's permission set may be on other instances.
const PermissionCacheTTL = 30 * time.Second

// Service orchestrates RBAC operations. Every mutation runs in one transaction and
// flushes the role permission cache.
type Service struct {
	repo  Repository
	cache *gocache.Cache

	// mu orders cache fills against invalidation; gen counts invalidations so a read
	// that raced a mutation is never cached.
	mu  sync.Mutex
	gen uint64
}

// NewService constructs a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cache: gocache.New(PermissionCacheTTL, 2*PermissionCacheTTL)}
}

// ListRoles returns one page of roles ordered by creation time.
func (s *Service) ListRoles(ctx context.Context, page shared.PageRequest) ([]Role, int, error) {
	return s.repo.ListRoles(ctx, page)
}

// GetRole fetches a role with its permissions.
func (s *Service) GetRole(ctx context.Context, id string) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	return withPermissionList(role), nil
}

// CreateRole inserts a role and attaches permissionIDs.
func (s *Service) CreateRole(ctx context.Context, name string, permissionIDs []string) (Role, error) {
	var role Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := tx.InsertRole(ctx, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		if err := tx.AttachPermissions(ctx, created.ID, uniqueIDs(permissionIDs)); err != nil {
			return err
		}
		role, err = tx.FindRole(ctx, created.ID)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	s.invalidate()
	return withPermissionList(role), nil
}

// UpdateRole applies patch to role id.
func (s *Service) UpdateRole(ctx context.Context, id string, patch RolePatch) (Role, error) {
	var role Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.FindRole(ctx, id); err != nil {
			return err
		}
		if patch.Name != nil {
			if _, err := tx.UpdateRoleName(ctx, id, strings.TrimSpace(*patch.Name)); err != nil {
				return err
			}
		}
		if len(patch.PermissionIDs) > 0 {
			if err := tx.DetachAllPermissions(ctx, id); err != nil {
				return err
			}
			if err := tx.AttachPermissions(ctx, id, uniqueIDs(patch.PermissionIDs)); err != nil {
				return err
			}
		}
		var err error
		role, err = tx.FindRole(ctx, id)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	s.invalidate()
	return withPermissionList(role), nil
}

// DeleteRole removes role id. Roles still referenced by users are rejected by the store.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.FindRole(ctx, id); err != nil {
			return err
		}
		affected, err := tx.DeleteRole(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errRoleNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// ListPermissions returns every permission.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GetPermission fetches one permission.
func (s *Service) GetPermission(ctx context.Context, id string) (Permission, error) {
	return s.repo.GetPermission(ctx, id)
}

// CreatePermission inserts a permission.
func (s *Service) CreatePermission(ctx context.Context, name string) (Permission, error) {
	var perm Permission
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		perm, err = tx.InsertPermission(ctx, strings.TrimSpace(name))
		return err
	})
	if err != nil {
		return Permission{}, err
	}
	s.invalidate()
	return perm, nil
}

// DeletePermission removes a permission and detaches it from every role.
func (s *Service) DeletePermission(ctx context.Context, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		affected, err := tx.DeletePermission(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errPermissionNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// RolePermissionNames returns the lower-cased permission names granted to roleID.
func (s *Service) RolePermissionNames(ctx context.Context, roleID string) ([]string, error) {
	if cached, ok := s.cache.Get(roleID); ok {
		return cached.([]string), nil
	}
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	names, err := s.repo.RolePermissionNames(ctx, roleID)
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = strings.ToLower(strings.TrimSpace(n))
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cache.Set(roleID, names, gocache.DefaultExpiration)
	}
	s.mu.Unlock()
	return names, nil
}

// Seed provisions permissions and roles by name. Existing roles get their permission
// set replaced so repeated runs converge on the same state.
func (s *Service) Seed(ctx context.Context, permissions []string, roles []RoleSeed) (map[string]string, error) {
	roleIDs := make(map[string]string, len(roles))
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		permIDs := make(map[string]string, len(permissions))
		for _, name := range permissions {
			perm, err := tx.FindPermissionByName(ctx, name)
			if err != nil {
				if !isNotFound(err) {
					return err
				}
				if perm, err = tx.InsertPermission(ctx, name); err != nil {
					return err
				}
			}
			permIDs[name] = perm.ID
		}

		for _, seed := range roles {
			role, err := tx.FindRoleByName(ctx, seed.Name)
			if err != nil {
				if !isNotFound(err) {
					return err
				}
				if role, err = tx.InsertRole(ctx, seed.Name); err != nil {
					return err
				}
			}
			ids := make([]string, 0, len(seed.Permissions))
			for _, p := range seed.Permissions {
				if id, ok := permIDs[p]; ok {
					ids = append(ids, id)
				}
			}
			if err := tx.DetachAllPermissions(ctx, role.ID); err != nil {
				return err
			}
			if err := tx.AttachPermissions(ctx, role.ID, ids); err != nil {
				return err
			}
			roleIDs[seed.Name] = role.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return roleIDs, nil
}

// DefaultRoles is the role catalog the seeder provisions.
func DefaultRoles() []RoleSeed {
	var editor, viewer []string
	for _, p := range shared.CoreScopes() {
		if p != shared.PermRolesEdit {
			editor = append(editor, p)
		}
		if strings.HasPrefix(p, "view_") {
			viewer = append(viewer, p)
		}
	}
	return []RoleSeed{
		{Name: shared.RoleAdmin, Permissions: shared.CoreScopes()},
		{Name: shared.RoleEditor, Permissions: editor},
		{Name: shared.RoleViewer, Permissions: viewer},
	}
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache.Flush()
	s.mu.Unlock()
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func withPermissionList(role Role) Role {
	if role.Permissions == nil {
		role.Permissions = []Permission{}
	}
	return role
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
