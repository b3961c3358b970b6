package emaillogs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

// MemoryStore keeps email logs in process.
type MemoryStore struct {
	mu   sync.Mutex
	logs []models.EmailLog
}

// NewMemoryStore creates an empty email log store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(_ context.Context, el *models.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	el.ID = uuid.New()
	el.CreatedAt = time.Now().UTC()
	m.logs = append(m.logs, *el)
	return nil
}

func (m *MemoryStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*models.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.EmailLog
	for i := range m.logs {
		if el := m.logs[i]; el.SessionID != nil && *el.SessionID == sessionID {
			list = append(list, &el)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}
