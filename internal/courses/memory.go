package courses

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

// MemoryCatalog is an in-process catalog for development and tests.
type MemoryCatalog struct {
	mu       sync.RWMutex
	courses  []models.Course
	audience map[uuid.UUID][]models.Recipient
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{audience: make(map[uuid.UUID][]models.Recipient)}
}

// AddCourse registers a course with its enrolled recipients.
func (m *MemoryCatalog) AddCourse(c models.Course, recipients ...models.Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses = append(m.courses, c)
	m.audience[c.ID] = append(m.audience[c.ID], recipients...)
}

func (m *MemoryCatalog) ListCourses(context.Context) ([]models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Course(nil), m.courses...), nil
}

func (m *MemoryCatalog) ResolveRecipients(_ context.Context, courseID uuid.UUID) ([]models.Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Recipient(nil), m.audience[courseID]...), nil
}
