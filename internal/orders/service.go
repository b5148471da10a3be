package orders

import (
	"context"
	"errors"

	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/products"
)

// ProductSource resolves products for price snapshots at order time.
type ProductSource interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// Service implements the order lifecycle. Unit prices are snapshotted from
// the product catalog when a draft is created or rewritten, so later price
// edits never change a recorded order.
type Service struct {
	repo     *Repository
	products ProductSource
}

// NewService builds a Service instance.
func NewService(repo *Repository, products ProductSource) *Service {
	return &Service{repo: repo, products: products}
}

// List returns all orders, optionally scoped to one customer.
func (s *Service) List(ctx context.Context, customerID int64) ([]Order, error) {
	if customerID > 0 {
		return s.repo.ListByCustomer(ctx, customerID)
	}
	return s.repo.List(ctx)
}

// Get fetches one order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// CreateDraft opens a new draft order for the subject.
func (s *Service) CreateDraft(ctx context.Context, subject authz.Subject, o Order) (Order, error) {
	if err := s.price(ctx, &o); err != nil {
		return Order{}, err
	}
	o.Status = StatusDraft
	o.CreatedBy = subject.UserID
	return s.repo.Create(ctx, o)
}

// UpdateDraft rewrites a draft order. Orders past draft are immutable
// outside of status moves.
func (s *Service) UpdateDraft(ctx context.Context, o Order) (Order, error) {
	existing, err := s.repo.Get(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	if existing.Status != StatusDraft {
		return Order{}, ErrInvalidTransition
	}
	if err := s.price(ctx, &o); err != nil {
		return Order{}, err
	}
	return s.repo.UpdateDraft(ctx, o)
}

// Approve moves a draft order to approved, recording the approver.
func (s *Service) Approve(ctx context.Context, subject authz.Subject, id int64) (Order, error) {
	return s.transition(ctx, id, StatusApproved, subject.UserID)
}

// Complete closes an approved order.
func (s *Service) Complete(ctx context.Context, id int64) (Order, error) {
	return s.transition(ctx, id, StatusCompleted, 0)
}

// Cancel voids a draft or approved order.
func (s *Service) Cancel(ctx context.Context, id int64) (Order, error) {
	return s.transition(ctx, id, StatusCancelled, 0)
}

// Delete removes a draft order entirely.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status != StatusDraft {
		return ErrInvalidTransition
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) transition(ctx context.Context, id int64, next Status, approvedBy int64) (Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !existing.Status.CanTransition(next) {
		return Order{}, ErrInvalidTransition
	}
	return s.repo.SetStatus(ctx, id, existing.Status, next, approvedBy)
}

// price snapshots unit prices from the product catalog and computes line
// and order totals.
func (s *Service) price(ctx context.Context, o *Order) error {
	if len(o.Lines) == 0 {
		return errors.New("orders: at least one line required")
	}
	var total int64
	for i := range o.Lines {
		line := &o.Lines[i]
		if line.Quantity <= 0 {
			return errors.New("orders: line quantity must be positive")
		}
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return err
		}
		line.UnitPriceCents = product.PriceCents
		line.LineTotalCents = product.PriceCents * int64(line.Quantity)
		total += line.LineTotalCents
	}
	o.TotalCents = total
	return nil
}

var _ ProductSource = (*products.Repository)(nil)
