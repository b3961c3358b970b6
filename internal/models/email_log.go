package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType values recorded in email logs.
const (
	EmailTypeSessionReminder = "live_session_reminder"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records one delivery attempt of a queued email.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      *uuid.UUID `json:"session_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
