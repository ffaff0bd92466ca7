// Package scheduler runs the master price refreshes on fixed intervals.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/services"
)

// MasterRefresher is the part of the price workflow the scheduler drives.
type MasterRefresher interface {
	RefreshMaster(ctx context.Context, mode models.RefreshMode) (*services.RefreshResult, error)
}

// Scheduler triggers retry refreshes on a short interval and full
// refreshes on a long one. Runs never overlap.
type Scheduler struct {
	refresher     MasterRefresher
	retryInterval time.Duration
	fullInterval  time.Duration
	log           *zap.SugaredLogger
}

// New creates a Scheduler. A non-positive interval disables that mode.
func New(refresher MasterRefresher, retryInterval, fullInterval time.Duration) *Scheduler {
	return &Scheduler{
		refresher:     refresher,
		retryInterval: retryInterval,
		fullInterval:  fullInterval,
		log:           logger.Named("scheduler"),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	retryC, stopRetry := tick(s.retryInterval)
	defer stopRetry()
	fullC, stopFull := tick(s.fullInterval)
	defer stopFull()

	s.log.Infow("Scheduler started", "retry_interval", s.retryInterval, "full_interval", s.fullInterval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return
		case <-retryC:
			s.refresh(ctx, models.RefreshModeRetry)
		case <-fullC:
			s.refresh(ctx, models.RefreshModeFull)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context, mode models.RefreshMode) {
	start := time.Now()
	result, err := s.refresher.RefreshMaster(ctx, mode)
	if err != nil {
		s.log.Warnw("Scheduled refresh failed", "mode", mode, "error", err)
		return
	}
	s.log.Infow("Scheduled refresh complete",
		"mode", mode,
		"updated", result.UpdatedCount,
		"failed", result.FailedCount,
		"elapsed", time.Since(start),
	)
}

// tick returns a nil channel, which never fires, for a disabled interval.
func tick(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(d)
	return t.C, t.Stop
}
