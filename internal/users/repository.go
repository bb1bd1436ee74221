package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/admin-app/admin-api/internal/platform/db"
	"github.com/admin-app/admin-api/internal/shared"
)

// Repository is the user store.
type Repository interface {
	FindOne(ctx context.Context, f Filter) (User, error)
	FindCredentials(ctx context.Context, email string) (Credentials, error)
	List(ctx context.Context, page shared.PageRequest) ([]User, int, error)

	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside a transaction.
type TxRepository interface {
	Create(ctx context.Context, u NewUser) (User, error)
	FindOne(ctx context.Context, f Filter) (User, error)
	UpdateByID(ctx context.Context, id string, p Patch) (int64, error)
	UpdateMany(ctx context.Context, f Filter, p Patch) (int64, error)
	RoleIDByName(ctx context.Context, name string) (string, error)
}

var (
	errUserExists   = shared.NewError(shared.ErrConflict, "User already exists")
	errUserNotFound = shared.NewError(shared.ErrNotFound, "User not found")
	errRoleNotFound = shared.NewError(shared.ErrNotFound, "Role is not found")
)

const userColumns = `u.id, u.first_name, u.last_name, u.full_name, u.email, u.role_id, u.created_at, u.updated_at`

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

func (r *repository) FindOne(ctx context.Context, f Filter) (User, error) {
	return findOne(ctx, r.pool, f)
}

func (r *repository) FindCredentials(ctx context.Context, email string) (Credentials, error) {
	var c Credentials
	err := r.pool.QueryRow(ctx, `SELECT id, email, password FROM users WHERE email = $1`, email).
		Scan(&c.ID, &c.Email, &c.PasswordHash)
	if err != nil {
		if db.IsNoRows(err) {
			return Credentials{}, errUserNotFound
		}
		return Credentials{}, fmt.Errorf("users: find credentials: %w", err)
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+`, r.id, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		ORDER BY u.created_at, u.id
		LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	list := make([]User, 0, page.Limit())
	for rows.Next() {
		var u User
		var role RoleRef
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.FullName, &u.Email, &u.RoleID, &u.CreatedAt, &u.UpdatedAt, &role.ID, &role.Name); err != nil {
			return nil, 0, fmt.Errorf("users: scan: %w", err)
		}
		u.Role = &role
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("users: list rows: %w", err)
	}
	return list, total, nil
}

func (t *txRepository) Create(ctx context.Context, nu NewUser) (User, error) {
	var u User
	err := t.tx.QueryRow(ctx, `INSERT INTO users AS u (id, first_name, last_name, email, password, role_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		uuid.NewString(), nu.FirstName, nu.LastName, nu.Email, nu.PasswordHash, nu.RoleID,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.FullName, &u.Email, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return User{}, errUserExists
		case db.IsForeignKeyViolation(err):
			return User{}, errRoleNotFound
		}
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return u, nil
}

func (t *txRepository) FindOne(ctx context.Context, f Filter) (User, error) {
	return findOne(ctx, t.tx, f)
}

func (t *txRepository) UpdateByID(ctx context.Context, id string, p Patch) (int64, error) {
	return t.UpdateMany(ctx, Filter{ID: id}, p)
}

func (t *txRepository) UpdateMany(ctx context.Context, f Filter, p Patch) (int64, error) {
	if f.IsEmpty() || p.IsEmpty() {
		return 0, nil
	}
	sets, args := patchClauses(p)
	where, args := filterClauses(f, args)
	tag, err := t.tx.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return 0, shared.NewError(shared.ErrConflict, "Email is already taken")
		case db.IsForeignKeyViolation(err):
			return 0, errRoleNotFound
		}
		return 0, fmt.Errorf("users: update: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) RoleIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1 ORDER BY created_at LIMIT 1`, name).Scan(&id)
	if err != nil {
		if db.IsNoRows(err) {
			return "", errRoleNotFound
		}
		return "", fmt.Errorf("users: role by name: %w", err)
	}
	return id, nil
}

func findOne(ctx context.Context, q db.Querier, f Filter) (User, error) {
	if f.IsEmpty() {
		return User{}, errUserNotFound
	}
	where, args := filterClauses(f, nil)
	var u User
	err := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE `+strings.Join(where, " AND ")+` LIMIT 1`, args...).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.FullName, &u.Email, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, errUserNotFound
		}
		return User{}, fmt.Errorf("users: find one: %w", err)
	}
	return u, nil
}

func filterClauses(f Filter, args []any) ([]string, []any) {
	var where []string
	if f.ID != "" {
		args = append(args, f.ID)
		where = append(where, "id = $"+strconv.Itoa(len(args)))
	}
	if f.Email != "" {
		args = append(args, f.Email)
		where = append(where, "email = $"+strconv.Itoa(len(args)))
	}
	return where, args
}

func patchClauses(p Patch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	add("first_name", p.FirstName)
	add("last_name", p.LastName)
	add("email", p.Email)
	add("password", p.PasswordHash)
	add("role_id", p.RoleID)
	return sets, args
}
