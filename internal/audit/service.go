package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service coordinates audit trail reads and writes.
type Service struct {
	repo Repository
}

// NewService builds a new audit Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one event, stamping ID and time when absent.
func (s *Service) Record(ctx context.Context, event Event) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return s.repo.Insert(ctx, event)
}

// Timeline fetches audit rows with paging. Page sizes are clamped to keep
// the window bounded.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	// Fetch one extra row to detect a following page.
	rows, err := s.repo.TimelineWindow(ctx, filters, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Events: rows, Paging: paging}, nil
}
