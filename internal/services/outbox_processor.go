package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/internal/infrastructure/outbox"
	"github.com/synergysphere/backend/internal/mail"
)

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxProcessor delivers queued email on a schedule. Messages that keep
// failing are dropped after MaxRetries so one dead address cannot clog
// the queue forever.
type OutboxProcessor struct {
	store     *outbox.Store
	templates *mail.Templates
	sender    mail.Sender
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	templates *mail.Templates,
	sender mail.Sender,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	op := &OutboxProcessor{
		store:     store,
		templates: templates,
		sender:    sender,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = op.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboxProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbox processor started")
}

// Stop gracefully stops the scheduler.
func (op *OutboxProcessor) Stop(ctx context.Context) {
	if op == nil || op.cron == nil {
		return
	}
	stopCtx := op.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	op.logger.Info("outbox processor stopped")
}

// Drain sends queued messages synchronously, oldest first.
func (op *OutboxProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil {
		return nil
	}

	msgs, err := op.store.GetBatch(op.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := op.deliver(msg); err != nil {
			op.logger.Error("failed to deliver email",
				zap.String("message_id", msg.ID),
				zap.String("kind", msg.Kind),
				zap.Int("attempts", msg.Attempts+1),
				zap.Error(err))

			msg.Attempts++
			if msg.Attempts >= op.cfg.MaxRetries {
				op.logger.Warn("dropping email (max retries reached)",
					zap.String("message_id", msg.ID),
					zap.String("kind", msg.Kind))
				_ = op.store.Remove(msg)
				continue
			}

			if err := op.store.Remove(msg); err != nil {
				op.logger.Warn("failed to remove outbox message", zap.Error(err))
			}
			if err := op.store.Requeue(msg); err != nil {
				op.logger.Error("failed to requeue outbox message", zap.Error(err))
			}
			continue
		}

		if err := op.store.Remove(msg); err != nil {
			op.logger.Warn("failed to purge delivered message", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of queued messages.
func (op *OutboxProcessor) Size() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (op *OutboxProcessor) deliver(msg outbox.Message) error {
	subject, body, err := op.templates.Render(msg)
	if err != nil {
		return err
	}
	return op.sender.Send(msg.To, subject, body)
}
