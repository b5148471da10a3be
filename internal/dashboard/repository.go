package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Overview is the landing page summary.
type Overview struct {
	UserCount     int64 `json:"user_count"`
	CategoryCount int64 `json:"category_count"`
	ProductCount  int64 `json:"product_count"`
	OrderCount    int64 `json:"order_count"`
	DraftOrders   int64 `json:"draft_orders"`
}

// CategorySales is sales volume aggregated per category.
type CategorySales struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	UnitsSold    int64  `json:"units_sold"`
	SalesCents   int64  `json:"sales_cents"`
}

// StatusTotal is order revenue aggregated per lifecycle status.
type StatusTotal struct {
	Status     string `json:"status"`
	OrderCount int64  `json:"order_count"`
	TotalCents int64  `json:"total_cents"`
}

// Repository reads aggregate figures for the dashboard sections.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Overview returns the landing page counters.
func (r *Repository) Overview(ctx context.Context) (Overview, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM categories),
			(SELECT count(*) FROM products),
			(SELECT count(*) FROM orders),
			(SELECT count(*) FROM orders WHERE status = 'DRAFT')`)
	var o Overview
	if err := row.Scan(&o.UserCount, &o.CategoryCount, &o.ProductCount, &o.OrderCount, &o.DraftOrders); err != nil {
		return Overview{}, err
	}
	return o, nil
}

// SalesByCategory aggregates completed and approved order lines per
// category.
func (r *Repository) SalesByCategory(ctx context.Context) ([]CategorySales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name,
		       COALESCE(SUM(ol.quantity), 0),
		       COALESCE(SUM(ol.line_total_cents), 0)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		LEFT JOIN order_lines ol ON ol.product_id = p.id
		LEFT JOIN orders o ON o.id = ol.order_id AND o.status IN ('APPROVED', 'COMPLETED')
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CategorySales, 0)
	for rows.Next() {
		var cs CategorySales
		if err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.UnitsSold, &cs.SalesCents); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// RevenueByStatus aggregates order totals per lifecycle status.
func (r *Repository) RevenueByStatus(ctx context.Context) ([]StatusTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*), COALESCE(SUM(total_cents), 0)
		FROM orders
		GROUP BY status
		ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StatusTotal, 0)
	for rows.Next() {
		var st StatusTotal
		if err := rows.Scan(&st.Status, &st.OrderCount, &st.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
