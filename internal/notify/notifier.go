// Package notify delivers messages to individual recipients.
package notify

import (
	"context"
	"fmt"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/apperr"
)

// Message is a single rendered notification.
type Message struct {
	To      string
	Name    string
	Subject string
	HTML    string
	Text    string
	// Kind and Ref tag the message for delivery logs, e.g. "live_session_reminder" and a session id.
	Kind string
	Ref  string
}

// Notifier sends one message and returns a delivery id.
type Notifier interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// TransportError reports that a single delivery failed. Adapters return it wrapped
// in an apperr.CodeTransport error.
type TransportError struct {
	To  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.To, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transportErr(to string, err error) error {
	return apperr.E(apperr.CodeTransport, "Notifier.Send", "delivery failed", &TransportError{To: to, Err: err})
}
