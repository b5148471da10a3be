package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransition(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusDraft, StatusApproved, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusCompleted, false},
		{StatusDraft, StatusDraft, false},
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusDraft, false},
		{StatusApproved, StatusApproved, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusDraft, false},
		{StatusCancelled, StatusApproved, false},
		{StatusCancelled, StatusDraft, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to))
		})
	}
}

func TestTerminalStatusesNeverMove(t *testing.T) {
	all := []Status{StatusDraft, StatusApproved, StatusCompleted, StatusCancelled}
	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		for _, next := range all {
			assert.False(t, terminal.CanTransition(next), "%s should not move to %s", terminal, next)
		}
	}
}
