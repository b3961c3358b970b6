package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// LobbyRoom receives events for every session.
var LobbyRoom = uuid.Nil

// Hub maintains room -> set of connections and broadcasts messages.
// Rooms are keyed by session id; LobbyRoom observes all sessions.
// With Redis configured, events go through pub/sub so every instance delivers
// them to its own clients exactly once.
type Hub struct {
	rooms    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per room
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishRoomEvent(room uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to room channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeRoom(room uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for local-only delivery.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its room. The first client of a room starts its Redis
// subscription; the subscribe round-trip runs without holding the hub lock.
func (h *Hub) Register(c *Client) {
	room := c.Room
	h.mu.Lock()
	_, active := h.rooms[room]
	if !active {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("observer joined", zap.String("client_id", c.ID), zap.String("room", roomName(room)))

	if !active && h.redisSub != nil {
		h.subscribe(room)
	}
}

func (h *Hub) subscribe(room uuid.UUID) {
	cancel, err := h.redisSub.SubscribeRoom(room, func(event string, payload []byte) {
		h.BroadcastLocal(room, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("redis subscribe failed", zap.Error(err), zap.String("room", roomName(room)))
		return
	}

	h.mu.Lock()
	_, active := h.rooms[room]
	_, subscribed := h.subs[room]
	if active && !subscribed {
		h.subs[room] = cancel
		cancel = nil
	}
	h.mu.Unlock()

	// The room emptied, or another registrar subscribed first.
	if cancel != nil {
		cancel()
	}
}

// Unregister removes a client from its room and closes its send channel. Cancels the
// Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	m, ok := h.rooms[c.Room]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := m[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(m, c.ID)
	close(c.send)
	var cancel func()
	if len(m) == 0 {
		delete(h.rooms, c.Room)
		cancel = h.subs[c.Room]
		delete(h.subs, c.Room)
	}
	h.mu.Unlock()

	// The subscriber callback takes the read lock, so it is cancelled after unlocking.
	if cancel != nil {
		cancel()
	}
	h.logger.Debug("observer left", zap.String("client_id", c.ID), zap.String("room", roomName(c.Room)))
}

// BroadcastLocal sends a message to all clients of room on this instance.
// Slow clients whose buffer is full miss the message.
func (h *Hub) BroadcastLocal(room uuid.UUID, event string, payload interface{}) int {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("broadcast encode failed", zap.Error(err), zap.String("event", event))
		return 0
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, c := range h.rooms[room] {
		select {
		case c.send <- msg:
			delivered++
		default:
			h.logger.Debug("observer buffer full, dropping event", zap.String("client_id", c.ID), zap.String("event", event))
		}
	}
	return delivered
}

// Publish delivers event to room on every instance. Without Redis it is a local broadcast;
// with Redis the subscriber callback performs the broadcast, including on this instance.
func (h *Hub) Publish(room uuid.UUID, event string, payload interface{}) error {
	if h.redis == nil {
		h.BroadcastLocal(room, event, payload)
		return nil
	}
	data, err := encode(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	if err := h.redis.PublishRoomEvent(room, event, data); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

// ObserverCount returns the number of connected clients in room.
func (h *Hub) ObserverCount(room uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// SendToClient sends a message to a single client in room.
func (h *Hub) SendToClient(room uuid.UUID, clientID string, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.rooms[room][clientID]
	if !ok {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

func encode(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}

func roomName(room uuid.UUID) string {
	if room == LobbyRoom {
		return "lobby"
	}
	return room.String()
}
