package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/emaillogs"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/notify"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/queue"
)

type scriptedSender struct {
	mu    sync.Mutex
	fails map[string]bool
	sent  []string
}

func (s *scriptedSender) Send(_ context.Context, msg notify.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails[msg.To] {
		return "", &notify.TransportError{To: msg.To, Err: errors.New("550 no such user")}
	}
	s.sent = append(s.sent, msg.To)
	return "msg-1", nil
}

func (s *scriptedSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func emailJob(t *testing.T, to string, sessionID uuid.UUID) *queue.Job {
	t.Helper()
	body, err := json.Marshal(queue.EmailPayload{
		EmailType:      models.EmailTypeSessionReminder,
		SessionID:      &sessionID,
		RecipientEmail: to,
		Subject:        "Starting soon",
		BodyHTML:       "<p>hi</p>",
	})
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeEmail, Payload: body}
}

func TestEmailProcessor_Process(t *testing.T) {
	sender := &scriptedSender{fails: map[string]bool{"bounce@example.com": true}}
	logs := emaillogs.NewMemoryStore()
	p := NewEmailProcessor(nil, sender, logs, nil)
	sessionID := uuid.New()
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, emailJob(t, "ada@example.com", sessionID)))
	err := p.Process(ctx, emailJob(t, "bounce@example.com", sessionID))
	var te *notify.TransportError
	require.ErrorAs(t, err, &te)

	list, err := logs.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	byRecipient := map[string]*models.EmailLog{}
	for _, el := range list {
		byRecipient[el.RecipientEmail] = el
	}
	assert.Equal(t, models.EmailLogStatusSent, byRecipient["ada@example.com"].Status)
	assert.NotNil(t, byRecipient["ada@example.com"].SentAt)
	assert.Equal(t, models.EmailLogStatusFailed, byRecipient["bounce@example.com"].Status)
	assert.Contains(t, byRecipient["bounce@example.com"].ErrorMessage, "550")
}

func TestEmailProcessor_RejectsUnknownJobs(t *testing.T) {
	p := NewEmailProcessor(nil, &scriptedSender{}, emaillogs.NewMemoryStore(), nil)

	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: "recording_upload"}))
	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: queue.JobTypeEmail, Payload: json.RawMessage(`"x"`)}))
}

func TestEmailProcessor_RunRetriesIntoDLQ(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	q := queue.NewQueue(client, nil).WithBlockTimeout(50 * time.Millisecond)

	sender := &scriptedSender{fails: map[string]bool{"bounce@example.com": true}}
	logs := emaillogs.NewMemoryStore()
	p := NewEmailProcessor(q, sender, logs, nil)
	p.backoff = time.Millisecond

	sessionID := uuid.New()
	ctx := context.Background()
	_, err := q.EnqueueEmail(ctx, queue.EmailPayload{EmailType: models.EmailTypeSessionReminder, SessionID: &sessionID, RecipientEmail: "ada@example.com", Subject: "s"})
	require.NoError(t, err)
	_, err = q.EnqueueEmail(ctx, queue.EmailPayload{EmailType: models.EmailTypeSessionReminder, SessionID: &sessionID, RecipientEmail: "bounce@example.com", Subject: "s"})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(runCtx)
	}()

	require.Eventually(t, func() bool {
		n, err := q.Len(ctx, queue.QueueDLQ)
		return err == nil && n == 1
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 1, sender.count())
	list, err := logs.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, list, 1+queue.MaxRetries, "one success plus one failed row per attempt")
	pending, err := q.Len(ctx, queue.QueueEmails)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending)
}
