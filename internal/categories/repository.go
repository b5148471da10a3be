package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-apparel/meridian-console/internal/shared"
)

// Repository provides PostgreSQL backed persistence for categories.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const categoryColumns = `id, name, description, created_at, updated_at`

// List returns all categories ordered by name.
func (r *Repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

// ListByIDs returns the categories whose IDs appear in ids, ordered by name.
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]Category, error) {
	if len(ids) == 0 {
		return []Category{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

// Get fetches one category.
func (r *Repository) Get(ctx context.Context, id int64) (Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

// CategoryIDs returns every category ID, ascending. Satisfies the grant
// service's lister for expanding the super-admin sentinel.
func (r *Repository) CategoryIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, name, description string) (Category, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, description, created_at, updated_at) VALUES ($1, $2, now(), now())
		 RETURNING `+categoryColumns, name, description)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Category{}, err
	}
	return c, nil
}

// Update modifies a category's name and description.
func (r *Repository) Update(ctx context.Context, id int64, name, description string) (Category, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, description = $3, updated_at = now() WHERE id = $1
		 RETURNING `+categoryColumns, id, name, description)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

// Delete removes a category. Grants referencing it cascade away.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCategories(rows pgx.Rows) ([]Category, error) {
	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
