package rbac

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admin-app/admin-api/internal/shared"
)

type memStore struct {
	roles      map[string]Role
	perms      map[string]Permission
	links      map[string]map[string]struct{}
	rolesInUse map[string]bool
	seq        int
	namesCalls int
}

func newMemStore() *memStore {
	return &memStore{
		roles:      map[string]Role{},
		perms:      map[string]Permission{},
		links:      map[string]map[string]struct{}{},
		rolesInUse: map[string]bool{},
	}
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	c.seq, c.rolesInUse = m.seq, m.rolesInUse
	for k, v := range m.roles {
		c.roles[k] = v
	}
	for k, v := range m.perms {
		c.perms[k] = v
	}
	for k, set := range m.links {
		cp := make(map[string]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		c.links[k] = cp
	}
	return c
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addPermission(name string) Permission {
	p := Permission{ID: m.nextID("perm"), Name: name, CreatedAt: time.Now()}
	m.perms[p.ID] = p
	return p
}

func (m *memStore) withPermissions(role Role) Role {
	role.Permissions = nil
	for id := range m.links[role.ID] {
		role.Permissions = append(role.Permissions, m.perms[id])
	}
	sort.Slice(role.Permissions, func(i, j int) bool { return role.Permissions[i].Name < role.Permissions[j].Name })
	return role
}

func (m *memStore) ListRoles(ctx context.Context, page shared.PageRequest) ([]Role, int, error) {
	all := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	start := min(page.Offset(), len(all))
	end := min(start+page.Limit(), len(all))
	return all[start:end], len(all), nil
}

func (m *memStore) GetRole(ctx context.Context, id string) (Role, error) { return m.FindRole(ctx, id) }

func (m *memStore) RolePermissionNames(ctx context.Context, roleID string) ([]string, error) {
	m.namesCalls++
	var names []string
	for id := range m.links[roleID] {
		names = append(names, m.perms[id].Name)
	}
	return names, nil
}

func (m *memStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) GetPermission(ctx context.Context, id string) (Permission, error) {
	if p, ok := m.perms[id]; ok {
		return p, nil
	}
	return Permission{}, errPermissionNotFound
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := m.clone()
	if err := fn(ctx, staged); err != nil {
		return err
	}
	m.roles, m.perms, m.links, m.seq = staged.roles, staged.perms, staged.links, staged.seq
	return nil
}

func (m *memStore) InsertRole(ctx context.Context, name string) (Role, error) {
	r := Role{ID: m.nextID("role"), Name: name, CreatedAt: time.Now()}
	m.roles[r.ID] = r
	m.links[r.ID] = map[string]struct{}{}
	return r, nil
}

func (m *memStore) FindRole(ctx context.Context, id string) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, errRoleNotFound
	}
	return m.withPermissions(r), nil
}

func (m *memStore) FindRoleByName(ctx context.Context, name string) (Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return m.withPermissions(r), nil
		}
	}
	return Role{}, errRoleNotFound
}

func (m *memStore) UpdateRoleName(ctx context.Context, id, name string) (int64, error) {
	r, ok := m.roles[id]
	if !ok {
		return 0, nil
	}
	r.Name = name
	m.roles[id] = r
	return 1, nil
}

func (m *memStore) AttachPermissions(ctx context.Context, roleID string, ids []string) error {
	for _, id := range ids {
		if _, ok := m.perms[id]; !ok {
			return errPermissionsMissing
		}
		m.links[roleID][id] = struct{}{}
	}
	return nil
}

func (m *memStore) DetachAllPermissions(ctx context.Context, roleID string) error {
	m.links[roleID] = map[string]struct{}{}
	return nil
}

func (m *memStore) DeleteRole(ctx context.Context, id string) (int64, error) {
	if m.rolesInUse[id] {
		return 0, errRoleInUse
	}
	if _, ok := m.roles[id]; !ok {
		return 0, nil
	}
	delete(m.roles, id)
	delete(m.links, id)
	return 1, nil
}

func (m *memStore) InsertPermission(ctx context.Context, name string) (Permission, error) {
	for _, p := range m.perms {
		if p.Name == name {
			return Permission{}, errPermissionDuplicate
		}
	}
	return m.addPermission(name), nil
}

func (m *memStore) FindPermissionByName(ctx context.Context, name string) (Permission, error) {
	for _, p := range m.perms {
		if p.Name == name {
			return p, nil
		}
	}
	return Permission{}, errPermissionNotFound
}

func (m *memStore) DeletePermission(ctx context.Context, id string) (int64, error) {
	if _, ok := m.perms[id]; !ok {
		return 0, nil
	}
	delete(m.perms, id)
	for _, set := range m.links {
		delete(set, id)
	}
	return 1, nil
}

func permissionNames(role Role) []string {
	names := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		names[i] = p.Name
	}
	return names
}

func TestUpdateRoleReplacesPermissionSetExactly(t *testing.T) {
	store := newMemStore()
	p1, p2, p3 := store.addPermission("p1"), store.addPermission("p2"), store.addPermission("p3")
	svc := NewService(store)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "Support", []string{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, permissionNames(role))

	updated, err := svc.UpdateRole(ctx, role.ID, RolePatch{PermissionIDs: []string{p2.ID, p3.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, permissionNames(updated))
	assert.Equal(t, "Support", updated.Name)
}

func TestUpdateRoleEmptyPermissionsLeavesSetUntouched(t *testing.T) {
	store := newMemStore()
	p1 := store.addPermission("p1")
	svc := NewService(store)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "Support", []string{p1.ID})
	require.NoError(t, err)

	name := "Helpdesk"
	updated, err := svc.UpdateRole(ctx, role.ID, RolePatch{Name: &name, PermissionIDs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "Helpdesk", updated.Name)
	assert.Equal(t, []string{"p1"}, permissionNames(updated))
}

func TestUpdateRoleNotFound(t *testing.T) {
	svc := NewService(newMemStore())
	name := "x"
	_, err := svc.UpdateRole(context.Background(), "missing", RolePatch{Name: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Role is not found", shared.UserSafeMessage(err, ""))
}

func TestCreateRoleWithUnknownPermissionRollsBack(t *testing.T) {
	store := newMemStore()
	p1 := store.addPermission("p1")
	svc := NewService(store)

	_, err := svc.CreateRole(context.Background(), "Support", []string{p1.ID, "perm-404"})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, store.roles)
}

func TestDeleteRoleStillAssignedConflicts(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "Support", nil)
	require.NoError(t, err)
	store.rolesInUse[role.ID] = true

	err = svc.DeleteRole(ctx, role.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Contains(t, store.roles, role.ID)

	store.rolesInUse[role.ID] = false
	require.NoError(t, svc.DeleteRole(ctx, role.ID))
	require.ErrorIs(t, svc.DeleteRole(ctx, role.ID), shared.ErrNotFound)
}

func TestRolePermissionNamesCachedUntilMutation(t *testing.T) {
	store := newMemStore()
	p1, p2 := store.addPermission("View_Users"), store.addPermission("edit_users")
	svc := NewService(store)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "Support", []string{p1.ID})
	require.NoError(t, err)

	names, err := svc.RolePermissionNames(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"view_users"}, names)
	_, err = svc.RolePermissionNames(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.namesCalls)

	_, err = svc.UpdateRole(ctx, role.ID, RolePatch{PermissionIDs: []string{p2.ID}})
	require.NoError(t, err)
	names, err = svc.RolePermissionNames(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"edit_users"}, names)
	assert.Equal(t, 2, store.namesCalls)
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.Seed(ctx, shared.CoreScopes(), DefaultRoles())
	require.NoError(t, err)
	second, err := svc.Seed(ctx, shared.CoreScopes(), DefaultRoles())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.perms, 8)
	assert.Len(t, store.roles, 3)

	viewer, err := svc.GetRole(ctx, first[shared.RoleViewer])
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"view_orders", "view_products", "view_roles", "view_users"}, permissionNames(viewer))

	editor, err := svc.GetRole(ctx, first[shared.RoleEditor])
	require.NoError(t, err)
	assert.Len(t, editor.Permissions, 7)
	assert.NotContains(t, permissionNames(editor), shared.PermRolesEdit)
}

// stallingStore blocks the first permission-name read after it has loaded its result.
type stallingStore struct {
	*memStore
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *stallingStore) RolePermissionNames(ctx context.Context, roleID string) ([]string, error) {
	names, err := s.memStore.RolePermissionNames(ctx, roleID)
	s.once.Do(func() {
		close(s.loaded)
		<-s.release
	})
	return names, err
}

func TestRolePermissionNamesDoesNotCacheReadRacingMutation(t *testing.T) {
	mem := newMemStore()
	editRoles, viewRoles := mem.addPermission("edit_roles"), mem.addPermission("view_roles")
	store := &stallingStore{memStore: mem, loaded: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(store)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "Support", []string{editRoles.ID})
	require.NoError(t, err)

	stale := make(chan []string, 1)
	go func() {
		names, _ := svc.RolePermissionNames(ctx, role.ID)
		stale <- names
	}()
	<-store.loaded

	_, err = svc.UpdateRole(ctx, role.ID, RolePatch{PermissionIDs: []string{viewRoles.ID}})
	require.NoError(t, err)
	close(store.release)
	assert.Equal(t, []string{"edit_roles"}, <-stale)

	names, err := svc.RolePermissionNames(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"view_roles"}, names)
}
