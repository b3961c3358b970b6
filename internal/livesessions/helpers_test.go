package livesessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

type published struct {
	event   string
	payload models.SessionEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := payload.(models.SessionEvent)
	p.events = append(p.events, published{event: event, payload: ev})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.event)
	}
	return out
}

type recordingReminders struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
	cancelled []uuid.UUID
}

func (r *recordingReminders) Schedule(s *models.LiveSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, s.ID)
	return true
}

func (r *recordingReminders) Cancel(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, id)
}

var testEpoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, store Store) (*Controller, *recordingPublisher, *recordingReminders) {
	t.Helper()
	pub := &recordingPublisher{}
	rem := &recordingReminders{}
	c := NewController(store, rem, pub, nil)
	c.now = func() time.Time { return testEpoch }
	return c, pub, rem
}

func draftSession() *models.LiveSession {
	return &models.LiveSession{
		CourseID:    uuid.New(),
		Title:       "Options Basics: Live Session",
		JoinLink:    "https://meet.example.com/abc",
		ScheduledAt: testEpoch.Add(2 * time.Hour),
		CreatedBy:   uuid.New(),
	}
}

func seedSession(t *testing.T, store Store) *models.LiveSession {
	t.Helper()
	s := draftSession()
	s.Status = models.StatusUpcoming
	require.NoError(t, store.Create(context.Background(), s))
	return s
}
