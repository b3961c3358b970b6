package livesessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

// MemoryStore is a process-local Store used for development and tests.
// Records are copied on the way in and out.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.LiveSession
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]*models.LiveSession), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, s *models.LiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Find(_ context.Context, f Filter) ([]*models.LiveSession, error) {
	m.mu.Lock()
	var list []*models.LiveSession
	for _, s := range m.sessions {
		if f.matches(s) {
			list = append(list, s.Clone())
		}
	}
	m.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ScheduledAt.Before(list[j].ScheduledAt) })
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func (m *MemoryStore) UpdateLifecycle(_ context.Context, id uuid.UUID, expected models.SessionStatus, next *models.LiveSession) (*models.LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if cur.Status != expected {
		return nil, ErrStale
	}
	upd := cur.Clone()
	upd.Status = next.Status
	upd.StartedBy, upd.StartedByName, upd.StartedAt = next.StartedBy, next.StartedByName, next.StartedAt
	upd.EndedBy, upd.EndedByName, upd.EndedAt = next.EndedBy, next.EndedByName, next.EndedAt
	upd.UpdatedAt = m.now()
	upd = upd.Clone()
	m.sessions[id] = upd
	return upd.Clone(), nil
}

func (m *MemoryStore) ClaimReminder(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[id]
	if !ok {
		return false, ErrNotFound
	}
	if cur.ReminderSent {
		return false, nil
	}
	cur.ReminderSent = true
	cur.UpdatedAt = m.now()
	return true, nil
}
