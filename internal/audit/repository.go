package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists and reads audit events.
type Repository interface {
	Insert(ctx context.Context, event Event) error
	TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Event, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert appends one event to the trail.
func (r *PGRepository) Insert(ctx context.Context, event Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_events (id, at, actor_id, action, entity, entity_id, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.At.UTC(), event.ActorID, event.Action, event.Entity, event.EntityID, event.Detail)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// TimelineWindow returns events newest-first within the filter window. The
// filters use zero values as "no filter".
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, at, actor_id, action, entity, entity_id, detail FROM audit_events
		 WHERE ($1::timestamptz IS NULL OR at >= $1)
		   AND ($2::timestamptz IS NULL OR at <= $2)
		   AND ($3::bigint = 0 OR actor_id = $3)
		   AND ($4::text = '' OR action = $4)
		 ORDER BY at DESC
		 OFFSET $5 LIMIT $6`,
		nullableTime(filters.From), nullableTime(filters.To), filters.ActorID, filters.Action, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.At, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &e.Detail); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

var _ Repository = (*PGRepository)(nil)
