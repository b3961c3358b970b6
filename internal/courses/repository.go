// Package courses reads the course catalog and enrollments owned by the LMS core.
package courses

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

// Repository reads courses and their audiences from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a course repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCourses returns every published course.
func (r *Repository) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title FROM courses WHERE published = TRUE ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var list []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ResolveRecipients returns the active students enrolled in courseID, one row per address.
func (r *Repository) ResolveRecipients(ctx context.Context, courseID uuid.UUID) ([]models.Recipient, error) {
	const q = `SELECT DISTINCT ON (lower(u.email)) u.id, u.email, COALESCE(u.full_name, '')
		FROM enrollments e
		JOIN users u ON u.id = e.user_id
		WHERE e.course_id = $1 AND e.status = 'active' AND u.email <> ''
		ORDER BY lower(u.email), u.id`
	rows, err := r.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var list []models.Recipient
	for rows.Next() {
		var rc models.Recipient
		if err := rows.Scan(&rc.UserID, &rc.Email, &rc.FullName); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		list = append(list, rc)
	}
	return list, rows.Err()
}
