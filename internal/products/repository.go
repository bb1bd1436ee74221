package products

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/admin-app/admin-api/internal/platform/db"
	"github.com/admin-app/admin-api/internal/shared"
)

// Repository is the product store.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id string, product Product) (Product, error)
	Delete(ctx context.Context, id string) error
}

var errProductNotFound = shared.NewError(shared.ErrNotFound, "Product not found")

const productColumns = `id, title, description, image, price, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND (title ILIKE $` + strconv.Itoa(len(args)) + ` OR description ILIKE $` + strconv.Itoa(len(args)) + `)`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	args = append(args, filters.Limit(), filters.Offset())
	query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("products: list rows: %w", err)
	}
	return list, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Product{}, errProductNotFound
		}
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO products (title, description, image, price)
		VALUES ($1, $2, $3, $4) RETURNING `+productColumns,
		product.Title, product.Description, product.Image, product.Price)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id string, product Product) (Product, error) {
	row := r.db.QueryRow(ctx, `UPDATE products SET title = $1, description = $2, image = $3, price = $4
		WHERE id = $5 RETURNING `+productColumns,
		product.Title, product.Description, product.Image, product.Price, id)
	updated, err := scanProduct(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Product{}, errProductNotFound
		}
		return Product{}, fmt.Errorf("products: update: %w", err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Image, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "title":
		return "title " + dir + ", id"
	case "price":
		return "price " + dir + ", id"
	default:
		return "created_at " + dir + ", id"
	}
}
