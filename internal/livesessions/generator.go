package livesessions

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/apperr"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/metrics"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/utils"
)

// CourseCatalog lists the courses sessions can be generated for.
type CourseCatalog interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
}

// GeneratorConfig controls auto-generated sessions.
type GeneratorConfig struct {
	Secret      string // shared secret compared as-is
	SecretHash  string // bcrypt hash of the shared secret; wins over Secret when set
	DaysAhead   int
	Hour        int // UTC time of day for generated sessions
	Minute      int
	JoinBaseURL string
	ActorID     uuid.UUID // recorded as created_by
}

// Generator fabricates sessions for a randomly chosen course.
type Generator struct {
	controller *Controller
	catalog    CourseCatalog
	cfg        GeneratorConfig
	logger     *zap.Logger
	now        func() time.Time
	intn       func(n int) int
}

// NewGenerator creates an auto session generator.
func NewGenerator(controller *Controller, catalog CourseCatalog, cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DaysAhead <= 0 {
		cfg.DaysAhead = 2
	}
	return &Generator{
		controller: controller,
		catalog:    catalog,
		cfg:        cfg,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		intn:       rand.Intn,
	}
}

// Generate creates an upcoming session for a random course. secret must match the
// configured shared secret; nothing is created otherwise.
func (g *Generator) Generate(ctx context.Context, secret string) (*models.LiveSession, error) {
	const op = "Generator.Generate"

	if !g.authorized(secret) {
		metrics.RecordAutogenRejected("forbidden")
		g.logger.Warn("auto session generation rejected: bad secret")
		return nil, apperr.E(apperr.CodeForbidden, op, "invalid secret", nil)
	}

	courses, err := g.catalog.ListCourses(ctx)
	if err != nil {
		g.logger.Error("list courses failed", zap.Error(err))
		return nil, apperr.E(apperr.CodePersistence, op, "failed to load courses", err)
	}
	if len(courses) == 0 {
		metrics.RecordAutogenRejected("no_courses")
		return nil, apperr.E(apperr.CodePrecondition, op, "no courses available", nil)
	}
	course := courses[g.intn(len(courses))]

	link, err := g.joinLink(course.ID)
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to generate join link", err)
	}

	s, err := g.controller.Create(ctx, &models.LiveSession{
		CourseID:    course.ID,
		Title:       fmt.Sprintf("%s: Live Session", course.Title),
		JoinLink:    link,
		ScheduledAt: g.scheduledAt(),
		CreatedBy:   g.cfg.ActorID,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordSessionCreated("autogen")
	return s, nil
}

func (g *Generator) authorized(secret string) bool {
	if secret == "" {
		return false
	}
	if g.cfg.SecretHash != "" {
		return utils.CheckSecret(secret, g.cfg.SecretHash)
	}
	if g.cfg.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(g.cfg.Secret)) == 1
}

func (g *Generator) scheduledAt() time.Time {
	d := g.now().UTC().AddDate(0, 0, g.cfg.DaysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), g.cfg.Hour, g.cfg.Minute, 0, 0, time.UTC)
}

// joinLink pairs the course id with a time-ordered v7 token; v7 carries a random
// tail so links generated in the same millisecond still differ.
func (g *Generator) joinLink(courseID uuid.UUID) (string, error) {
	token, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(g.cfg.JoinBaseURL, "/")
	return fmt.Sprintf("%s/%s-%s", base, courseID, token), nil
}
