package livesessions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

const sessionColumns = `id, course_id, title, join_link, scheduled_at, expires_at, status,
	started_by, COALESCE(started_by_name,''), started_at,
	ended_by, COALESCE(ended_by_name,''), ended_at,
	reminder_sent, created_by, created_at, updated_at`

// Repository handles live_sessions persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a live session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSession(row pgx.Row) (*models.LiveSession, error) {
	var s models.LiveSession
	var status string
	err := row.Scan(&s.ID, &s.CourseID, &s.Title, &s.JoinLink, &s.ScheduledAt, &s.ExpiresAt, &status,
		&s.StartedBy, &s.StartedByName, &s.StartedAt,
		&s.EndedBy, &s.EndedByName, &s.EndedAt,
		&s.ReminderSent, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	return &s, nil
}

// Create inserts a new live session.
func (r *Repository) Create(ctx context.Context, s *models.LiveSession) error {
	const q = `INSERT INTO live_sessions (id, course_id, title, join_link, scheduled_at, expires_at, status, reminder_sent, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.CourseID, s.Title, s.JoinLink, s.ScheduledAt, s.ExpiresAt, string(s.Status), s.ReminderSent, s.CreatedBy).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert live session: %w", err)
	}
	return nil
}

// GetByID returns a live session by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.LiveSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM live_sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select live session: %w", err)
	}
	return s, nil
}

// Find returns sessions matching f, soonest first.
func (r *Repository) Find(ctx context.Context, f Filter) ([]*models.LiveSession, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CourseID != nil {
		conds = append(conds, "course_id = "+arg(*f.CourseID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		conds = append(conds, "status = ANY("+arg(statuses)+")")
	}
	if f.ScheduledAfter != nil {
		conds = append(conds, "scheduled_at > "+arg(*f.ScheduledAfter))
	}
	if f.ReminderSent != nil {
		conds = append(conds, "reminder_sent = "+arg(*f.ReminderSent))
	}

	q := `SELECT ` + sessionColumns + ` FROM live_sessions`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY scheduled_at ASC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query live sessions: %w", err)
	}
	defer rows.Close()

	var list []*models.LiveSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan live session: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateLifecycle writes status and actor metadata in one statement guarded by the expected status.
func (r *Repository) UpdateLifecycle(ctx context.Context, id uuid.UUID, expected models.SessionStatus, next *models.LiveSession) (*models.LiveSession, error) {
	const q = `UPDATE live_sessions SET
		status = $2,
		started_by = $3, started_by_name = NULLIF($4,''), started_at = $5,
		ended_by = $6, ended_by_name = NULLIF($7,''), ended_at = $8,
		updated_at = NOW()
		WHERE id = $1 AND status = $9
		RETURNING ` + sessionColumns
	s, err := scanSession(r.pool.QueryRow(ctx, q, id, string(next.Status),
		next.StartedBy, next.StartedByName, next.StartedAt,
		next.EndedBy, next.EndedByName, next.EndedAt,
		string(expected)))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update live session: %w", err)
	}
	var exists int
	err = r.pool.QueryRow(ctx, `SELECT 1 FROM live_sessions WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check live session: %w", err)
	}
	return nil, ErrStale
}

// ClaimReminder flips reminder_sent to true if it is still false.
func (r *Repository) ClaimReminder(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE live_sessions SET reminder_sent = TRUE, updated_at = NOW() WHERE id = $1 AND reminder_sent = FALSE`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
