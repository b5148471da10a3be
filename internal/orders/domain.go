package orders

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition marks a lifecycle move the current status does not
// permit.
var ErrInvalidTransition = errors.New("orders: invalid status transition")

// CanTransition reports whether the order may move from s to next. Drafts
// may be approved or cancelled; approved orders may complete or cancel;
// terminal states never move.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusApproved || next == StatusCancelled
	case StatusApproved:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// Order is one customer order. Orders are module-gated per action; the
// approve action carries its own role set.
type Order struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	Status     Status     `json:"status"`
	TotalCents int64      `json:"total_cents"`
	Notes      string     `json:"notes"`
	CreatedBy  int64      `json:"created_by"`
	ApprovedBy *int64     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Lines      []Line     `json:"lines,omitempty"`
}

// Line is one product position on an order.
type Line struct {
	ID             int64 `json:"id"`
	OrderID        int64 `json:"order_id"`
	ProductID      int64 `json:"product_id"`
	Quantity       int32 `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
	LineTotalCents int64 `json:"line_total_cents"`
}
