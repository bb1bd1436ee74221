package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/admin-app/admin-api/internal/platform/db"
	"github.com/admin-app/admin-api/internal/shared"
)

// Repository is the role and permission store.
type Repository interface {
	ListRoles(ctx context.Context, page shared.PageRequest) ([]Role, int, error)
	GetRole(ctx context.Context, id string) (Role, error)
	RolePermissionNames(ctx context.Context, roleID string) ([]string, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id string) (Permission, error)

	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside a transaction.
type TxRepository interface {
	InsertRole(ctx context.Context, name string) (Role, error)
	FindRole(ctx context.Context, id string) (Role, error)
	FindRoleByName(ctx context.Context, name string) (Role, error)
	UpdateRoleName(ctx context.Context, id, name string) (int64, error)
	AttachPermissions(ctx context.Context, roleID string, permissionIDs []string) error
	DetachAllPermissions(ctx context.Context, roleID string) error
	DeleteRole(ctx context.Context, id string) (int64, error)

	InsertPermission(ctx context.Context, name string) (Permission, error)
	FindPermissionByName(ctx context.Context, name string) (Permission, error)
	DeletePermission(ctx context.Context, id string) (int64, error)
}

var (
	errRoleNotFound        = shared.NewError(shared.ErrNotFound, "Role is not found")
	errPermissionNotFound  = shared.NewError(shared.ErrNotFound, "Permission is not found")
	errPermissionsMissing  = shared.NewError(shared.ErrNotFound, "One or more permissions do not exist")
	errRoleInUse           = shared.NewError(shared.ErrConflict, "Role is still assigned to users")
	errPermissionDuplicate = shared.NewError(shared.ErrConflict, "Permission already exists")
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx wraps fn in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) ListRoles(ctx context.Context, page shared.PageRequest) ([]Role, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("rbac: count roles: %w", err)
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM roles
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("rbac: list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]Role, 0, page.Limit())
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("rbac: scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rbac: list roles rows: %w", err)
	}
	return roles, total, nil
}

func (r *repository) GetRole(ctx context.Context, id string) (Role, error) {
	return findRole(ctx, r.pool, `id = $1`, id)
}

func (r *repository) RolePermissionNames(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.name FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role permission names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("rbac: collect permission names: %w", err)
	}
	return names, nil
}

func (r *repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	return listPermissions(ctx, r.pool, `SELECT id, name, created_at, updated_at FROM permissions ORDER BY created_at, id`)
}

func (r *repository) GetPermission(ctx context.Context, id string) (Permission, error) {
	return findPermission(ctx, r.pool, `id = $1`, id)
}

func (t *txRepository) InsertRole(ctx context.Context, name string) (Role, error) {
	var role Role
	err := t.tx.QueryRow(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2) RETURNING id, name, created_at, updated_at`,
		uuid.NewString(), name).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, fmt.Errorf("rbac: insert role: %w", err)
	}
	return role, nil
}

func (t *txRepository) FindRole(ctx context.Context, id string) (Role, error) {
	return findRole(ctx, t.tx, `id = $1`, id)
}

func (t *txRepository) FindRoleByName(ctx context.Context, name string) (Role, error) {
	return findRole(ctx, t.tx, `name = $1`, name)
}

func (t *txRepository) UpdateRoleName(ctx context.Context, id, name string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE roles SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return 0, fmt.Errorf("rbac: update role: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) AttachPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO role_permissions (permission_id, role_id)
		SELECT unnest($2::uuid[]), $1
		ON CONFLICT DO NOTHING`, roleID, permissionIDs)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return errPermissionsMissing
		}
		return fmt.Errorf("rbac: attach permissions: %w", err)
	}
	return nil
}

func (t *txRepository) DetachAllPermissions(ctx context.Context, roleID string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("rbac: detach permissions: %w", err)
	}
	return nil
}

func (t *txRepository) DeleteRole(ctx context.Context, id string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, errRoleInUse
		}
		return 0, fmt.Errorf("rbac: delete role: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) InsertPermission(ctx context.Context, name string) (Permission, error) {
	var p Permission
	err := t.tx.QueryRow(ctx, `INSERT INTO permissions (id, name) VALUES ($1, $2) RETURNING id, name, created_at, updated_at`,
		uuid.NewString(), name).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, errPermissionDuplicate
		}
		return Permission{}, fmt.Errorf("rbac: insert permission: %w", err)
	}
	return p, nil
}

func (t *txRepository) FindPermissionByName(ctx context.Context, name string) (Permission, error) {
	return findPermission(ctx, t.tx, `name = $1`, name)
}

func (t *txRepository) DeletePermission(ctx context.Context, id string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("rbac: delete permission: %w", err)
	}
	return tag.RowsAffected(), nil
}

func findRole(ctx context.Context, q db.Querier, where string, arg any) (Role, error) {
	var role Role
	err := q.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM roles WHERE `+where+` ORDER BY created_at LIMIT 1`, arg).
		Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, errRoleNotFound
		}
		return Role{}, fmt.Errorf("rbac: find role: %w", err)
	}
	perms, err := listPermissions(ctx, q, `SELECT p.id, p.name, p.created_at, p.updated_at FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, role.ID)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

func findPermission(ctx context.Context, q db.Querier, where string, arg any) (Permission, error) {
	var p Permission
	err := q.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM permissions WHERE `+where+` ORDER BY created_at LIMIT 1`, arg).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return Permission{}, errPermissionNotFound
		}
		return Permission{}, fmt.Errorf("rbac: find permission: %w", err)
	}
	return p, nil
}

func listPermissions(ctx context.Context, q db.Querier, sql string, args ...any) ([]Permission, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		var p Permission
		err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("rbac: scan permissions: %w", err)
	}
	return perms, nil
}
