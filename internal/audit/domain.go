package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one row on the audit trail.
type Event struct {
	ID       uuid.UUID `json:"id"`
	At       time.Time `json:"at"`
	ActorID  int64     `json:"actor_id"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Detail   string    `json:"detail"`
}

// Actions recorded by the console.
const (
	ActionGrantsReplaced   = "grants.replaced"
	ActionNavigationDenied = "navigation.denied"
	ActionLogin            = "auth.login"
	ActionLogout           = "auth.logout"
)

// TimelineFilters narrows the audit timeline query.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the window returned by a timeline query.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps timeline rows with paging information.
type Result struct {
	Events []Event    `json:"events"`
	Paging PagingInfo `json:"paging"`
}
