package realtime

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/metrics"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

// Broadcaster publishes session lifecycle events to observers of the session and
// of the lobby. Delivery is best effort: failures are logged and counted, never returned.
type Broadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster over hub.
func NewBroadcaster(hub *Hub, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{hub: hub, logger: logger}
}

// Publish fans out event. Payloads carrying a session id also reach that session's room.
func (b *Broadcaster) Publish(event string, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordBroadcastFailure(event)
			b.logger.Error("broadcast panicked", zap.String("event", event), zap.Any("panic", r))
		}
	}()
	if b.hub == nil {
		return
	}

	rooms := []uuid.UUID{LobbyRoom}
	if id := sessionID(payload); id != uuid.Nil {
		rooms = append(rooms, id)
	}
	for _, room := range rooms {
		if err := b.hub.Publish(room, event, payload); err != nil {
			metrics.RecordBroadcastFailure(event)
			b.logger.Warn("broadcast failed", zap.String("event", event), zap.String("room", roomName(room)), zap.Error(err))
		}
	}
}

func sessionID(payload interface{}) uuid.UUID {
	switch v := payload.(type) {
	case models.SessionEvent:
		return v.ID
	case *models.SessionEvent:
		if v != nil {
			return v.ID
		}
	case *models.LiveSession:
		if v != nil {
			return v.ID
		}
	}
	return uuid.Nil
}
