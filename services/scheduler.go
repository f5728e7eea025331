package services

import (
	"context"
	"time"

	"realestate-insights/models"
	"realestate-insights/utils"
)

// Syncer is the part of Synchronizer the scheduler needs.
type Syncer interface {
	Synchronize(ctx context.Context, onProgress func(models.Progress)) ([]*models.Project, error)
}

// Scheduler triggers a sync at start and then on every interval tick.
// A failed run is not retried before the next tick.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	logger   *utils.Logger
}

// NewScheduler creates a Scheduler firing every interval.
func NewScheduler(syncer Syncer, interval time.Duration, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   logger.With("scheduler"),
	}
}

// Serve implements suture.Service. It blocks until ctx is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.syncer.Synchronize(ctx, nil); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Dur("next_in", s.interval).Msg("[scheduler] Scheduled sync failed")
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *Scheduler) String() string {
	return "sync-scheduler"
}
