// Package reminders arms one "starting soon" notification per live session.
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/livesessions"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/metrics"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/notify"
)

// DefaultLead is how long before scheduled_at the reminder fires.
const DefaultLead = 30 * time.Minute

// AudienceResolver returns the addressable members of a course.
type AudienceResolver interface {
	ResolveRecipients(ctx context.Context, courseID uuid.UUID) ([]models.Recipient, error)
}

// Config controls reminder timing and content.
type Config struct {
	Lead    time.Duration
	AppName string
}

// Pass outcomes, also used as metric labels.
const (
	OutcomeSent          = "sent"
	OutcomeAlreadySent   = "already_sent"
	OutcomeInactive      = "inactive"
	OutcomeLoadFailed    = "load_failed"
	OutcomeResolveFailed = "resolve_failed"
	OutcomeSendFailed    = "send_failed"
	OutcomeClaimFailed   = "claim_failed"
	OutcomeAborted       = "aborted"
	OutcomePanic         = "panic"
)

type entry struct {
	timer Timer
	gen   uint64
}

// Scheduler owns the armed reminder timers, one per session id.
type Scheduler struct {
	store    livesessions.Store
	audience AudienceResolver
	notifier notify.Notifier
	clock    Clock
	cfg      Config
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]entry
	gen     uint64
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a reminder scheduler. clock may be nil for the wall clock.
func NewScheduler(store livesessions.Store, audience AudienceResolver, notifier notify.Notifier, clock Clock, cfg Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Lead <= 0 {
		cfg.Lead = DefaultLead
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:    store,
		audience: audience,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
		entries:  make(map[uuid.UUID]entry),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Schedule arms the reminder for s, replacing any timer already armed for it.
// It does nothing when the reminder was sent, the session can no longer occur,
// or the fire time has already passed. It reports whether a timer was armed.
func (s *Scheduler) Schedule(rec *models.LiveSession) bool {
	if rec == nil || rec.ReminderSent || rec.Status.Terminal() {
		return false
	}
	fireAt := rec.ScheduledAt.Add(-s.cfg.Lead)
	delay := fireAt.Sub(s.clock.Now())
	if delay <= 0 {
		s.logger.Debug("reminder window already passed",
			zap.String("session_id", rec.ID.String()), zap.Time("fire_at", fireAt))
		return false
	}

	id := rec.ID
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if old, ok := s.entries[id]; ok {
		old.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.entries[id] = entry{
		timer: s.clock.AfterFunc(delay, func() { s.fire(id, gen) }),
		gen:   gen,
	}
	metrics.SetRemindersArmed(len(s.entries))
	s.logger.Info("reminder armed", zap.String("session_id", id.String()), zap.Time("fire_at", fireAt))
	return true
}

// Cancel stops and forgets the timer armed for id, if any.
func (s *Scheduler) Cancel(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(s.entries, id)
	metrics.SetRemindersArmed(len(s.entries))
	s.logger.Info("reminder cancelled", zap.String("session_id", id.String()))
}

// RecoverPending re-arms reminders for every future session whose reminder has
// not been sent. It returns the number of timers armed.
func (s *Scheduler) RecoverPending(ctx context.Context) (int, error) {
	now := s.clock.Now()
	unsent := false
	list, err := s.store.Find(ctx, livesessions.Filter{
		Statuses:       []models.SessionStatus{models.StatusUpcoming, models.StatusLive, models.StatusPaused},
		ScheduledAfter: &now,
		ReminderSent:   &unsent,
	})
	if err != nil {
		return 0, fmt.Errorf("find pending reminders: %w", err)
	}
	armed := 0
	for _, rec := range list {
		if s.Schedule(rec) {
			armed++
		}
	}
	s.logger.Info("pending reminders recovered", zap.Int("candidates", len(list)), zap.Int("armed", armed))
	return armed, nil
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop disarms every timer, cancels in-flight passes and waits for them to return.
// The scheduler cannot be reused.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
	metrics.SetRemindersArmed(0)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) fire(id uuid.UUID, gen uint64) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.entries, id)
	metrics.SetRemindersArmed(len(s.entries))
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	outcome := OutcomePanic
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reminder pass panicked", zap.String("session_id", id.String()), zap.Any("panic", r))
		}
		metrics.RecordReminderPass(outcome)
	}()
	outcome = s.run(s.ctx, id)
}

// run performs one reminder pass for id and returns its outcome.
func (s *Scheduler) run(ctx context.Context, id uuid.UUID) string {
	log := s.logger.With(zap.String("session_id", id.String()))

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		log.Error("reminder: load session failed", zap.Error(err))
		return OutcomeLoadFailed
	}
	if rec.ReminderSent {
		log.Info("reminder already sent, skipping")
		return OutcomeAlreadySent
	}
	if rec.Status.Terminal() {
		log.Info("session no longer active, skipping reminder", zap.String("status", string(rec.Status)))
		return OutcomeInactive
	}

	recipients, err := s.audience.ResolveRecipients(ctx, rec.CourseID)
	if err != nil {
		log.Error("reminder: resolve recipients failed", zap.Error(err))
		return OutcomeResolveFailed
	}

	sent := 0
	for _, r := range recipients {
		if ctx.Err() != nil {
			break
		}
		msg, err := renderReminder(rec, r, s.cfg.Lead, s.cfg.AppName)
		if err != nil {
			log.Error("reminder: render failed", zap.String("recipient", r.Email), zap.Error(err))
			metrics.RecordReminderSend(false)
			continue
		}
		deliveryID, err := s.notifier.Send(ctx, msg)
		metrics.RecordReminderSend(err == nil)
		if err != nil {
			log.Warn("reminder: send failed", zap.String("recipient", r.Email), zap.Error(err))
			continue
		}
		sent++
		log.Debug("reminder sent", zap.String("recipient", r.Email), zap.String("delivery_id", deliveryID))
	}

	if ctx.Err() != nil {
		log.Warn("reminder pass aborted, leaving reminder unsent",
			zap.Int("sent", sent), zap.Int("recipients", len(recipients)))
		return OutcomeAborted
	}
	if sent == 0 && len(recipients) > 0 {
		log.Error("reminder: every send failed, leaving reminder unsent", zap.Int("recipients", len(recipients)))
		return OutcomeSendFailed
	}

	claimed, err := s.store.ClaimReminder(context.WithoutCancel(ctx), id)
	if err != nil {
		log.Error("reminder: claim failed", zap.Error(err), zap.Int("sent", sent))
		return OutcomeClaimFailed
	}
	if !claimed {
		log.Warn("reminder claimed by another writer", zap.Int("sent", sent))
		return OutcomeAlreadySent
	}
	log.Info("reminder delivered", zap.Int("sent", sent), zap.Int("recipients", len(recipients)))
	return OutcomeSent
}
