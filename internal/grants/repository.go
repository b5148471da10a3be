package grants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/platform/db"
)

// Repository defines persistence for category grants.
type Repository interface {
	ListForUser(ctx context.Context, userID int64) ([]CategoryGrant, error)
	ReplaceForUser(ctx context.Context, userID int64, grants []CategoryGrant) error
	AllowedCategoryIDs(ctx context.Context, userID int64, action authz.Action) ([]int64, error)
	ListForCategory(ctx context.Context, categoryID int64) ([]CategoryGrant, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const grantColumns = `user_id, category_id, can_view, can_create, can_edit, can_delete, updated_at`

// ListForUser returns all grants for one user ordered by category.
func (r *PGRepository) ListForUser(ctx context.Context, userID int64) ([]CategoryGrant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+grantColumns+` FROM category_grants WHERE user_id = $1 ORDER BY category_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrants(rows)
}

// ListForCategory returns all grants touching one category ordered by user.
func (r *PGRepository) ListForCategory(ctx context.Context, categoryID int64) ([]CategoryGrant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+grantColumns+` FROM category_grants WHERE category_id = $1 ORDER BY user_id`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrants(rows)
}

// ReplaceForUser overwrites all active grants for a user in one transaction.
// The save is a bulk replace: a previously granted category absent from the
// new set loses its grant.
func (r *PGRepository) ReplaceForUser(ctx context.Context, userID int64, grants []CategoryGrant) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM category_grants WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("grants: clear user grants: %w", err)
		}
		for _, g := range grants {
			if g.Empty() {
				continue
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO category_grants (user_id, category_id, can_view, can_create, can_edit, can_delete, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, now())`,
				userID, g.CategoryID, g.CanView, g.CanCreate, g.CanEdit, g.CanDelete)
			if err != nil {
				return grantInsertErr(err, g.CategoryID)
			}
		}
		return nil
	})
}

// grantInsertErr maps postgres constraint violations on the grant insert to
// the package sentinels: a foreign key failure means the category does not
// exist, a unique failure means the payload repeated it.
func grantInsertErr(err error, categoryID int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w: %d", ErrUnknownCategory, categoryID)
		case "23505":
			return fmt.Errorf("%w: %d", ErrDuplicateCategory, categoryID)
		}
	}
	return fmt.Errorf("grants: insert grant: %w", err)
}

// AllowedCategoryIDs returns the category IDs for which the user holds the
// given action, ordered by category ID.
func (r *PGRepository) AllowedCategoryIDs(ctx context.Context, userID int64, action authz.Action) ([]int64, error) {
	column, ok := actionColumn(action)
	if !ok {
		// Ungrantable action: nothing qualifies.
		return []int64{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT category_id FROM category_grants WHERE user_id = $1 AND `+column+` ORDER BY category_id`, userID)
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

// actionColumn maps a CRUD action to its column. The column names are fixed
// identifiers, never user input.
func actionColumn(action authz.Action) (string, bool) {
	switch action {
	case authz.ActionView:
		return "can_view", true
	case authz.ActionCreate:
		return "can_create", true
	case authz.ActionEdit:
		return "can_edit", true
	case authz.ActionDelete:
		return "can_delete", true
	}
	return "", false
}

func scanGrants(rows pgx.Rows) ([]CategoryGrant, error) {
	grants := make([]CategoryGrant, 0)
	for rows.Next() {
		var g CategoryGrant
		if err := rows.Scan(&g.UserID, &g.CategoryID, &g.CanView, &g.CanCreate, &g.CanEdit, &g.CanDelete, &g.UpdatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
