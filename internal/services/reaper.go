package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/repository"
)

// InvitationReaper periodically removes invitations past their deadline.
// Reads already filter on expires_at, so the sweep keeps the table small
// rather than guarding correctness.
type InvitationReaper struct {
	invitations repository.InvitationRepository
	logger      *zap.Logger
	cron        *cron.Cron
	interval    time.Duration
}

func NewInvitationReaper(invitations repository.InvitationRepository, logger *zap.Logger, interval time.Duration) *InvitationReaper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &InvitationReaper{
		invitations: invitations,
		logger:      logger,
		interval:    interval,
		cron:        cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		r.Sweep(ctx)
	})

	return r
}

// Start launches the cron scheduler.
func (r *InvitationReaper) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("invitation reaper started")
}

// Stop gracefully stops the scheduler.
func (r *InvitationReaper) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("invitation reaper stopped")
}

// Sweep removes overdue invitations once.
func (r *InvitationReaper) Sweep(ctx context.Context) {
	if r == nil || r.invitations == nil {
		return
	}
	n, err := r.invitations.DeleteExpired(ctx, time.Now())
	if err != nil {
		r.logger.Error("invitation sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("expired invitations swept", zap.Int64("count", n))
	}
}
