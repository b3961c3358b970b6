package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/queue"
)

// Enqueuer is the part of queue.Queue used for email jobs.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) (string, error)
}

// QueueNotifier hands messages to the email worker through the Redis job queue.
// The returned id is the job id; delivery happens asynchronously.
type QueueNotifier struct {
	q      Enqueuer
	logger *zap.Logger
}

// NewQueueNotifier creates a queue-backed notifier.
func NewQueueNotifier(q Enqueuer, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{q: q, logger: logger}
}

func (n *QueueNotifier) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", transportErr(msg.To, errors.New("empty recipient"))
	}
	payload := queue.EmailPayload{
		EmailType:      msg.Kind,
		RecipientEmail: msg.To,
		RecipientName:  msg.Name,
		Subject:        msg.Subject,
		BodyHTML:       msg.HTML,
		BodyText:       msg.Text,
	}
	if id, err := uuid.Parse(msg.Ref); err == nil {
		payload.SessionID = &id
	}
	id, err := n.q.EnqueueEmail(ctx, payload)
	if err != nil {
		return "", transportErr(msg.To, err)
	}
	return id, nil
}
