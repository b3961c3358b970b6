package livesessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/apperr"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/utils"
)

type staticCatalog struct {
	courses []models.Course
	err     error
}

func (s staticCatalog) ListCourses(context.Context) ([]models.Course, error) {
	return s.courses, s.err
}

func newTestGenerator(t *testing.T, catalog CourseCatalog, cfg GeneratorConfig) (*Generator, *MemoryStore, *recordingPublisher, *recordingReminders) {
	t.Helper()
	store := NewMemoryStore()
	c, pub, rem := newTestController(t, store)
	if cfg.JoinBaseURL == "" {
		cfg.JoinBaseURL = "https://live.example.com/join/"
	}
	g := NewGenerator(c, catalog, cfg, nil)
	g.now = func() time.Time { return time.Date(2025, 3, 10, 22, 45, 0, 0, time.UTC) }
	return g, store, pub, rem
}

func TestGenerator_Generate(t *testing.T) {
	courses := []models.Course{
		{ID: uuid.New(), Title: "Price Action"},
		{ID: uuid.New(), Title: "Risk Management"},
	}
	g, store, pub, rem := newTestGenerator(t, staticCatalog{courses: courses}, GeneratorConfig{Secret: "s3cret", Hour: 14, Minute: 30})
	g.intn = func(n int) int { return n - 1 }

	s, err := g.Generate(context.Background(), "s3cret")
	require.NoError(t, err)

	assert.Equal(t, courses[1].ID, s.CourseID)
	assert.Equal(t, "Risk Management: Live Session", s.Title)
	assert.Equal(t, time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC), s.ScheduledAt)
	assert.Equal(t, models.StatusUpcoming, s.Status)
	assert.True(t, strings.HasPrefix(s.JoinLink, "https://live.example.com/join/"+courses[1].ID.String()+"-"), s.JoinLink)

	assert.Equal(t, []uuid.UUID{s.ID}, rem.scheduled)
	assert.Equal(t, []string{models.EventSessionCreated}, pub.names())
	stored, err := store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.JoinLink, stored.JoinLink)
}

func TestGenerator_JoinLinksAreUnique(t *testing.T) {
	course := models.Course{ID: uuid.New(), Title: "Options"}
	g, _, _, _ := newTestGenerator(t, staticCatalog{courses: []models.Course{course}}, GeneratorConfig{Secret: "s3cret"})

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := g.Generate(context.Background(), "s3cret")
		require.NoError(t, err)
		assert.False(t, seen[s.JoinLink], "duplicate join link %s", s.JoinLink)
		seen[s.JoinLink] = true
	}
}

func TestGenerator_RejectsBadSecret(t *testing.T) {
	catalog := staticCatalog{courses: []models.Course{{ID: uuid.New(), Title: "Options"}}}
	for _, tt := range []struct {
		name   string
		cfg    GeneratorConfig
		secret string
	}{
		{"wrong secret", GeneratorConfig{Secret: "s3cret"}, "guess"},
		{"empty secret", GeneratorConfig{Secret: "s3cret"}, ""},
		{"unconfigured", GeneratorConfig{}, "anything"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			g, store, pub, rem := newTestGenerator(t, catalog, tt.cfg)

			_, err := g.Generate(context.Background(), tt.secret)
			assert.True(t, apperr.IsCode(err, apperr.CodeForbidden), "got %v", err)

			list, _ := store.Find(context.Background(), Filter{})
			assert.Empty(t, list)
			assert.Empty(t, pub.names())
			assert.Empty(t, rem.scheduled)
		})
	}
}

func TestGenerator_SecretHash(t *testing.T) {
	hash, err := utils.HashSecret("hashed-secret")
	require.NoError(t, err)
	catalog := staticCatalog{courses: []models.Course{{ID: uuid.New(), Title: "Options"}}}
	g, _, _, _ := newTestGenerator(t, catalog, GeneratorConfig{Secret: "plain", SecretHash: hash})

	_, err = g.Generate(context.Background(), "plain")
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden), "hash takes precedence")

	_, err = g.Generate(context.Background(), "hashed-secret")
	assert.NoError(t, err)
}

func TestGenerator_EmptyCatalog(t *testing.T) {
	g, store, pub, _ := newTestGenerator(t, staticCatalog{}, GeneratorConfig{Secret: "s3cret"})

	_, err := g.Generate(context.Background(), "s3cret")
	assert.True(t, apperr.IsCode(err, apperr.CodePrecondition), "got %v", err)

	list, _ := store.Find(context.Background(), Filter{})
	assert.Empty(t, list)
	assert.Empty(t, pub.names())
}

func TestGenerator_CatalogFailure(t *testing.T) {
	g, _, _, _ := newTestGenerator(t, staticCatalog{err: errors.New("db down")}, GeneratorConfig{Secret: "s3cret"})

	_, err := g.Generate(context.Background(), "s3cret")
	assert.True(t, apperr.IsCode(err, apperr.CodePersistence))
}
