package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-apparel/meridian-console/internal/platform/db"
	"github.com/meridian-apparel/meridian-console/internal/shared"
)

// ErrUnknownReference marks an order pointing at a missing customer or
// product.
var ErrUnknownReference = errors.New("orders: unknown customer or product")

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, customer_id, status, total_cents, notes, created_by, approved_by, approved_at, created_at, updated_at`

// List returns all orders, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListByCustomer returns one customer's orders, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// Get fetches one order with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	lines, err := r.lines(ctx, id)
	if err != nil {
		return Order{}, err
	}
	order.Lines = lines
	return order, nil
}

// Create inserts an order and its lines in one transaction.
func (r *Repository) Create(ctx context.Context, o Order) (Order, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO orders (customer_id, status, total_cents, notes, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now(), now())
			 RETURNING id, created_at, updated_at`,
			o.CustomerID, o.Status, o.TotalCents, o.Notes, o.CreatedBy)
		if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return referenceErr(err)
		}
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
			line := &o.Lines[i]
			row := tx.QueryRow(ctx,
				`INSERT INTO order_lines (order_id, product_id, quantity, unit_price_cents, line_total_cents)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING id`,
				line.OrderID, line.ProductID, line.Quantity, line.UnitPriceCents, line.LineTotalCents)
			if err := row.Scan(&line.ID); err != nil {
				return referenceErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// UpdateDraft rewrites a draft order's customer, notes and lines.
func (r *Repository) UpdateDraft(ctx context.Context, o Order) (Order, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE orders SET customer_id = $2, total_cents = $3, notes = $4, updated_at = now()
			 WHERE id = $1 AND status = $5
			 RETURNING updated_at`,
			o.ID, o.CustomerID, o.TotalCents, o.Notes, StatusDraft)
		if err := row.Scan(&o.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return referenceErr(err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
			return fmt.Errorf("orders: clear lines: %w", err)
		}
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
			line := &o.Lines[i]
			row := tx.QueryRow(ctx,
				`INSERT INTO order_lines (order_id, product_id, quantity, unit_price_cents, line_total_cents)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING id`,
				line.OrderID, line.ProductID, line.Quantity, line.UnitPriceCents, line.LineTotalCents)
			if err := row.Scan(&line.ID); err != nil {
				return referenceErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// SetStatus moves an order into next, guarding the transition in SQL so a
// concurrent move cannot double-apply. approvedBy is recorded only on
// approval.
func (r *Repository) SetStatus(ctx context.Context, id int64, current, next Status, approvedBy int64) (Order, error) {
	var row pgx.Row
	if next == StatusApproved {
		row = r.pool.QueryRow(ctx,
			`UPDATE orders SET status = $3, approved_by = $4, approved_at = now(), updated_at = now()
			 WHERE id = $1 AND status = $2
			 RETURNING `+orderColumns, id, current, next, approvedBy)
	} else {
		row = r.pool.QueryRow(ctx,
			`UPDATE orders SET status = $3, updated_at = now()
			 WHERE id = $1 AND status = $2
			 RETURNING `+orderColumns, id, current, next)
	}
	order, err := scanOrder(row)
	if errors.Is(err, shared.ErrNotFound) {
		return Order{}, ErrInvalidTransition
	}
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// Delete removes a draft order and its lines.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND status = $2`, id, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) lines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price_cents, line_total_cents
		 FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPriceCents, &l.LineTotalCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func referenceErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrUnknownReference
	}
	return err
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalCents, &o.Notes,
		&o.CreatedBy, &o.ApprovedBy, &o.ApprovedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	out := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalCents, &o.Notes,
			&o.CreatedBy, &o.ApprovedBy, &o.ApprovedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
