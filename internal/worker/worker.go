// Package worker drains queued reminder emails and delivers them.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/emaillogs"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/notify"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/queue"
)

// JobSource is the part of queue.Queue the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// EmailProcessor sends email jobs through a transport and records each attempt.
type EmailProcessor struct {
	queue   JobSource
	sender  notify.Notifier
	logs    emaillogs.Store
	logger  *zap.Logger
	backoff time.Duration
	now     func() time.Time
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(q JobSource, sender notify.Notifier, logs emaillogs.Store, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		queue:   q,
		sender:  sender,
		logs:    logs,
		logger:  logger,
		backoff: queue.RetryBackoff,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	deliveryID, sendErr := p.sender.Send(ctx, notify.Message{
		To:      payload.RecipientEmail,
		Name:    payload.RecipientName,
		Subject: payload.Subject,
		HTML:    payload.BodyHTML,
		Text:    payload.BodyText,
		Kind:    payload.EmailType,
	})

	entry := &models.EmailLog{
		SessionID:      payload.SessionID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		Status:         models.EmailLogStatusSent,
	}
	if sendErr != nil {
		entry.Status = models.EmailLogStatusFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		t := p.now()
		entry.SentAt = &t
	}
	if err := p.logs.Insert(ctx, entry); err != nil {
		p.logger.Error("insert email log failed", zap.Error(err), zap.String("job_id", job.ID))
	}

	if sendErr != nil {
		return fmt.Errorf("send: %w", sendErr)
	}
	p.logger.Info("email delivered",
		zap.String("job_id", job.ID),
		zap.String("recipient", payload.RecipientEmail),
		zap.String("delivery_id", deliveryID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(context.WithoutCancel(ctx), job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
