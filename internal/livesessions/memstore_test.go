package livesessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

func TestMemoryStore_CopiesRecords(t *testing.T) {
	store := NewMemoryStore()
	s := seedSession(t, store)

	s.Title = "mutated by caller"
	got, err := store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Options Basics: Live Session", got.Title)

	got.Title = "mutated again"
	again, _ := store.GetByID(context.Background(), s.ID)
	assert.Equal(t, "Options Basics: Live Session", again.Title)
}

func TestMemoryStore_UpdateLifecycleIsConditional(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := seedSession(t, store)

	next := s.Clone()
	next.ApplyTransition(models.StatusLive, alice, testEpoch)
	next.Title = "ignored"
	next.ReminderSent = true

	_, err := store.UpdateLifecycle(ctx, s.ID, models.StatusPaused, next)
	assert.ErrorIs(t, err, ErrStale)

	saved, err := store.UpdateLifecycle(ctx, s.ID, models.StatusUpcoming, next)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLive, saved.Status)
	assert.Equal(t, s.Title, saved.Title, "only lifecycle columns are written")
	assert.False(t, saved.ReminderSent, "reminder flag is owned by ClaimReminder")

	_, err = store.UpdateLifecycle(ctx, uuid.New(), models.StatusUpcoming, next)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ClaimReminderOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := seedSession(t, store)

	ok, err := store.ClaimReminder(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ClaimReminder(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.ClaimReminder(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Find(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	course := uuid.New()

	mk := func(offset time.Duration, status models.SessionStatus, sent bool) *models.LiveSession {
		s := draftSession()
		s.CourseID = course
		s.ScheduledAt = testEpoch.Add(offset)
		s.Status = status
		s.ReminderSent = sent
		require.NoError(t, store.Create(ctx, s))
		return s
	}
	late := mk(3*time.Hour, models.StatusUpcoming, false)
	early := mk(time.Hour, models.StatusUpcoming, false)
	mk(2*time.Hour, models.StatusCancelled, false)
	mk(4*time.Hour, models.StatusUpcoming, true)
	mk(-time.Hour, models.StatusUpcoming, false)
	other := draftSession()
	other.Status = models.StatusUpcoming
	require.NoError(t, store.Create(ctx, other))

	after := testEpoch
	unsent := false
	list, err := store.Find(ctx, Filter{
		CourseID:       &course,
		Statuses:       []models.SessionStatus{models.StatusUpcoming, models.StatusLive, models.StatusPaused},
		ScheduledAfter: &after,
		ReminderSent:   &unsent,
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)

	limited, err := store.Find(ctx, Filter{CourseID: &course, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.True(t, limited[0].ScheduledAt.Equal(testEpoch.Add(-time.Hour)))
}
