package livesessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

var (
	// ErrNotFound is returned when no session has the requested id.
	ErrNotFound = errors.New("live session not found")
	// ErrStale is returned by conditional writes whose precondition no longer holds.
	ErrStale = errors.New("live session changed concurrently")
)

// Filter selects sessions in Find. Zero fields do not filter.
type Filter struct {
	CourseID       *uuid.UUID
	Statuses       []models.SessionStatus
	ScheduledAfter *time.Time
	ReminderSent   *bool
	Limit          int
}

// Store is the durable keyed record store for live sessions.
// Every mutating method is a single conditional write.
type Store interface {
	// Create persists s and fills ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, s *models.LiveSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LiveSession, error)
	Find(ctx context.Context, f Filter) ([]*models.LiveSession, error)
	// UpdateLifecycle writes the status and actor/timestamp fields of next only if the
	// stored status still equals expected. It returns ErrStale otherwise.
	UpdateLifecycle(ctx context.Context, id uuid.UUID, expected models.SessionStatus, next *models.LiveSession) (*models.LiveSession, error)
	// ClaimReminder sets reminder_sent only if it is still false and reports whether this call flipped it.
	ClaimReminder(ctx context.Context, id uuid.UUID) (bool, error)
}

func (f Filter) matches(s *models.LiveSession) bool {
	if f.CourseID != nil && s.CourseID != *f.CourseID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, st := range f.Statuses {
			if s.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.ScheduledAfter != nil && !s.ScheduledAt.After(*f.ScheduledAfter) {
		return false
	}
	if f.ReminderSent != nil && s.ReminderSent != *f.ReminderSent {
		return false
	}
	return true
}
