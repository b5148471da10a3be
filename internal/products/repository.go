package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-apparel/meridian-console/internal/shared"
)

// Repository provides PostgreSQL backed persistence for products.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, category_id, name, sku, price_cents, stock, is_active, created_at, updated_at`

// ListByCategory returns products of one category ordered by name.
func (r *Repository) ListByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListByCategories returns products across the given categories, ordered by
// category then name.
func (r *Repository) ListByCategories(ctx context.Context, categoryIDs []int64) ([]Product, error) {
	if len(categoryIDs) == 0 {
		return []Product{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE category_id = ANY($1) ORDER BY category_id, name`, categoryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListAll returns every product, for the unrestricted super-admin view.
func (r *Repository) ListAll(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY category_id, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// Get fetches one product.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (category_id, name, sku, price_cents, stock, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now()) RETURNING `+productColumns,
		p.CategoryID, p.Name, p.SKU, p.PriceCents, p.Stock, p.IsActive)
	return scanProduct(row)
}

// Update modifies a product in place. The category is immutable; moving a
// product across categories would silently change who may touch it.
func (r *Repository) Update(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE products SET name = $2, sku = $3, price_cents = $4, stock = $5, is_active = $6, updated_at = now()
		 WHERE id = $1 RETURNING `+productColumns,
		p.ID, p.Name, p.SKU, p.PriceCents, p.Stock, p.IsActive)
	return scanProduct(row)
}

// Delete removes a product.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.SKU, &p.PriceCents, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	p.PriceDisplay = FormatPrice(p.PriceCents)
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	out := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.SKU, &p.PriceCents, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.PriceDisplay = FormatPrice(p.PriceCents)
		out = append(out, p)
	}
	return out, rows.Err()
}
