package emaillogs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

// Store records and lists reminder deliveries.
type Store interface {
	Insert(ctx context.Context, el *models.EmailLog) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.EmailLog, error)
}

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one delivery attempt and fills ID and CreatedAt.
func (r *Repository) Insert(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (session_id, email_type, recipient_email, subject, status, sent_at, error_message)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, NULLIF($7,''))
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, el.SessionID, el.EmailType, el.RecipientEmail, el.Subject, el.Status, el.SentAt, el.ErrorMessage).
		Scan(&el.ID, &el.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

// ListBySession returns email logs for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, session_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE session_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.SessionID, &el.EmailType, &el.RecipientEmail, &subject, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
