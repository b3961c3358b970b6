package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogNotifier only logs messages. Used when no mail transport is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) (string, error) {
	id := uuid.NewString()
	n.logger.Info("notification (log only)",
		zap.String("delivery_id", id),
		zap.String("recipient", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("kind", msg.Kind))
	return id, nil
}
