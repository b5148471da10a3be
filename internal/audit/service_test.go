package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	inserted []Event
	events   []Event
}

func (m *mockRepo) Insert(ctx context.Context, event Event) error {
	m.inserted = append(m.inserted, event)
	return nil
}

func (m *mockRepo) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Event, error) {
	matched := []Event{}
	for _, e := range m.events {
		if filters.ActorID != 0 && e.ActorID != filters.ActorID {
			continue
		}
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		matched = append(matched, e)
	}
	if offset >= len(matched) {
		return []Event{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

var _ Repository = (*mockRepo)(nil)

func TestRecordStampsIDAndTime(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	err := svc.Record(context.Background(), Event{ActorID: 7, Action: ActionLogin, Entity: "user", EntityID: "7"})
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	stored := repo.inserted[0]
	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.False(t, stored.At.IsZero())
}

func TestRecordKeepsExplicitStamps(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	id := uuid.New()
	at := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	err := svc.Record(context.Background(), Event{ID: id, At: at, ActorID: 7, Action: ActionLogout})
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, id, repo.inserted[0].ID)
	assert.Equal(t, at, repo.inserted[0].At)
}

func makeEvents(n int) []Event {
	events := make([]Event, n)
	for i := range events {
		events[i] = Event{ID: uuid.New(), ActorID: int64(i%3 + 1), Action: ActionNavigationDenied}
	}
	return events
}

func TestTimelinePaging(t *testing.T) {
	repo := &mockRepo{events: makeEvents(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, result.Events, 20)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, result.Events, 5)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.PrevPage)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &mockRepo{events: makeEvents(80)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, result.Events, 50)
	assert.Equal(t, 50, result.Paging.PageSize)

	result, err = svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Len(t, result.Events, 20)
	assert.Equal(t, 1, result.Paging.Page)
}

func TestTimelineFiltersByActor(t *testing.T) {
	repo := &mockRepo{events: makeEvents(9)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{ActorID: 2})
	require.NoError(t, err)
	require.NotEmpty(t, result.Events)
	for _, e := range result.Events {
		assert.Equal(t, int64(2), e.ActorID)
	}
}
