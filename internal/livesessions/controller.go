package livesessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/apperr"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/metrics"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

// maxTransitionAttempts bounds re-reads after a conditional write loses a race.
const maxTransitionAttempts = 3

// Publisher fans out lifecycle events. Implementations must not block on slow
// observers and must swallow their own failures.
type Publisher interface {
	Publish(event string, payload interface{})
}

// ReminderScheduler is the part of the reminder scheduler the lifecycle needs.
type ReminderScheduler interface {
	Schedule(s *models.LiveSession) bool
	Cancel(id uuid.UUID)
}

// Controller enforces the live session status machine.
type Controller struct {
	store     Store
	reminders ReminderScheduler
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewController creates a lifecycle controller. reminders and publisher may be nil.
func NewController(store Store, reminders ReminderScheduler, publisher Publisher, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:     store,
		reminders: reminders,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Initialize validates draft and persists it as a new upcoming session.
func (c *Controller) Initialize(ctx context.Context, draft *models.LiveSession) (*models.LiveSession, error) {
	const op = "Controller.Initialize"

	s := draft.Clone()
	s.Title = strings.TrimSpace(s.Title)
	s.JoinLink = strings.TrimSpace(s.JoinLink)
	switch {
	case s.CourseID == uuid.Nil:
		return nil, apperr.E(apperr.CodeValidation, op, "course_id is required", nil)
	case s.Title == "":
		return nil, apperr.E(apperr.CodeValidation, op, "title is required", nil)
	case s.JoinLink == "":
		return nil, apperr.E(apperr.CodeValidation, op, "join_link is required", nil)
	case s.ScheduledAt.IsZero():
		return nil, apperr.E(apperr.CodeValidation, op, "scheduled_at is required", nil)
	}

	s.Status = models.StatusUpcoming
	s.ReminderSent = false
	s.StartedBy, s.StartedByName, s.StartedAt = nil, "", nil
	s.EndedBy, s.EndedByName, s.EndedAt = nil, "", nil

	if err := c.store.Create(ctx, s); err != nil {
		c.logger.Error("create live session failed", zap.Error(err), zap.String("course_id", s.CourseID.String()))
		return nil, apperr.E(apperr.CodePersistence, op, "failed to create session", err)
	}
	return s, nil
}

// Get returns a session by id.
func (c *Controller) Get(ctx context.Context, id uuid.UUID) (*models.LiveSession, error) {
	const op = "Controller.Get"
	s, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, c.readError(op, id, err)
	}
	return s, nil
}

// List returns sessions matching f.
func (c *Controller) List(ctx context.Context, f Filter) ([]*models.LiveSession, error) {
	list, err := c.store.Find(ctx, f)
	if err != nil {
		c.logger.Error("list live sessions failed", zap.Error(err))
		return nil, apperr.E(apperr.CodePersistence, "Controller.List", "failed to list sessions", err)
	}
	return list, nil
}

// Projection returns the polling view of a session.
func (c *Controller) Projection(ctx context.Context, id uuid.UUID) (models.Projection, error) {
	s, err := c.store.GetByID(ctx, id)
	if err != nil {
		return models.Projection{}, c.readError("Controller.Projection", id, err)
	}
	return s.Projection(), nil
}

// Transition moves a session to target on behalf of actor, persists it with a
// conditional write and broadcasts the change.
func (c *Controller) Transition(ctx context.Context, id uuid.UUID, target models.SessionStatus, actor models.Actor) (*models.LiveSession, error) {
	const op = "Controller.Transition"

	if !target.Valid() {
		return nil, apperr.E(apperr.CodeValidation, op, fmt.Sprintf("invalid status %q", target), nil)
	}

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		cur, err := c.store.GetByID(ctx, id)
		if err != nil {
			return nil, c.readError(op, id, err)
		}
		if !cur.Status.CanTransition(target) {
			return nil, apperr.E(apperr.CodeInvalidTransition, op, transitionMessage(cur.Status, target), nil)
		}

		from := cur.Status
		firstStart := target == models.StatusLive && cur.StartedAt == nil
		next := cur.Clone()
		next.ApplyTransition(target, actor, c.now())

		saved, err := c.store.UpdateLifecycle(ctx, id, from, next)
		if errors.Is(err, ErrStale) {
			metrics.RecordTransitionConflict()
			c.logger.Debug("live session transition lost race, retrying",
				zap.String("session_id", id.String()), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, c.storeError(op, id, "failed to save session", err)
		}

		metrics.RecordTransition(string(from), string(target))
		c.logger.Info("live session status changed",
			zap.String("session_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(target)),
			zap.String("actor_id", actor.ID.String()))

		if target.Terminal() && c.reminders != nil {
			c.reminders.Cancel(id)
		}
		c.publish(eventFor(target, firstStart), saved)
		return saved, nil
	}
	return nil, apperr.E(apperr.CodeConflict, op, "session was modified concurrently, try again", ErrStale)
}

func (c *Controller) publish(event string, s *models.LiveSession) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(event, models.NewSessionEvent(s))
}

func (c *Controller) readError(op string, id uuid.UUID, err error) error {
	return c.storeError(op, id, "failed to load session", err)
}

func (c *Controller) storeError(op string, id uuid.UUID, msg string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.E(apperr.CodeNotFound, op, "session not found", err)
	}
	c.logger.Error("live session store failed", zap.Error(err), zap.String("op", op), zap.String("session_id", id.String()))
	return apperr.E(apperr.CodePersistence, op, msg, err)
}

func eventFor(target models.SessionStatus, firstStart bool) string {
	switch {
	case target == models.StatusLive && firstStart:
		return models.EventSessionStarted
	case target == models.StatusEnded:
		return models.EventSessionEnded
	default:
		return models.EventSessionStatusUpdated
	}
}

func transitionMessage(from, to models.SessionStatus) string {
	switch {
	case from == to && to == models.StatusLive:
		return "session is already live"
	case from == to && to == models.StatusEnded:
		return "session has already ended"
	case from.Terminal():
		return fmt.Sprintf("session is %s and can no longer change status", from)
	default:
		return fmt.Sprintf("cannot change status from %s to %s", from, to)
	}
}

// Create initializes draft, arms its reminder and announces it to observers.
func (c *Controller) Create(ctx context.Context, draft *models.LiveSession) (*models.LiveSession, error) {
	s, err := c.Initialize(ctx, draft)
	if err != nil {
		return nil, err
	}
	if c.reminders != nil {
		c.reminders.Schedule(s)
	}
	c.publish(models.EventSessionCreated, s)
	c.logger.Info("live session created",
		zap.String("session_id", s.ID.String()),
		zap.String("course_id", s.CourseID.String()),
		zap.Time("scheduled_at", s.ScheduledAt))
	return s, nil
}
