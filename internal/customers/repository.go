package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-apparel/meridian-console/internal/shared"
)

// Repository provides PostgreSQL backed persistence for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, email, phone, notes, is_active, created_at, updated_at`

// List returns all customers ordered by name.
func (r *Repository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// Search returns customers whose name or email matches the query.
func (r *Repository) Search(ctx context.Context, query string) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		 ORDER BY name`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// Get fetches one customer.
func (r *Repository) Get(ctx context.Context, id int64) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

// Create inserts a customer.
func (r *Repository) Create(ctx context.Context, c Customer) (Customer, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone, notes, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())
		 RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.Notes, c.IsActive)
	return scanCustomer(row)
}

// Update modifies a customer.
func (r *Repository) Update(ctx context.Context, c Customer) (Customer, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE customers SET name = $2, email = $3, phone = $4, notes = $5, is_active = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Email, c.Phone, c.Notes, c.IsActive)
	return scanCustomer(row)
}

// Delete removes a customer.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

func scanCustomers(rows pgx.Rows) ([]Customer, error) {
	out := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
