package services

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"realestate-insights/metrics"
	"realestate-insights/models"
	"realestate-insights/utils"
)

// ProjectFetcher retrieves the complete, normalized catalog.
type ProjectFetcher interface {
	FetchAll(ctx context.Context, onProgress func(models.Progress)) ([]*models.Project, error)
}

// SyncStatus describes the most recent synchronization activity.
type SyncStatus struct {
	Syncing      bool            `json:"syncing"`
	RunID        string          `json:"run_id,omitempty"`
	LastSuccess  time.Time       `json:"last_success,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
	LastProgress models.Progress `json:"last_progress"`
	Records      int             `json:"records"`
}

// Synchronizer runs full catalog syncs and commits each successful result
// as a whole. At most one sync runs at a time; concurrent callers join it.
type Synchronizer struct {
	fetcher ProjectFetcher
	logger  *utils.Logger
	group   singleflight.Group

	snapshot atomic.Pointer[[]*models.Project]

	mu          sync.RWMutex
	status      SyncStatus
	subscribers []func([]*models.Project)
}

// NewSynchronizer creates a Synchronizer with an empty committed collection.
func NewSynchronizer(fetcher ProjectFetcher, logger *utils.Logger) *Synchronizer {
	return &Synchronizer{
		fetcher: fetcher,
		logger:  logger.With("sync"),
	}
}

// OnCommit registers fn to receive every newly committed collection.
func (s *Synchronizer) OnCommit(fn func([]*models.Project)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Projects returns the committed collection. Callers must not modify it.
func (s *Synchronizer) Projects() []*models.Project {
	if p := s.snapshot.Load(); p != nil {
		return *p
	}
	return nil
}

// Status returns a copy of the current sync status.
func (s *Synchronizer) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Synchronize fetches the whole catalog and commits it. A call made while
// another sync is running waits for that run and returns its result; only
// the initiating caller receives progress events. On failure the previous
// collection stays committed.
func (s *Synchronizer) Synchronize(ctx context.Context, onProgress func(models.Progress)) ([]*models.Project, error) {
	ch := s.group.DoChan("sync", func() (any, error) {
		return s.run(ctx, onProgress)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*models.Project), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Synchronizer) run(ctx context.Context, onProgress func(models.Progress)) ([]*models.Project, error) {
	runID := uuid.NewString()
	start := time.Now()

	s.mu.Lock()
	s.status.Syncing = true
	s.status.RunID = runID
	s.status.LastProgress = models.Progress{}
	s.mu.Unlock()

	s.logger.Info().Str("run_id", runID).Msg("[sync] Synchronization started")

	projects, err := s.fetcher.FetchAll(ctx, func(p models.Progress) {
		s.mu.Lock()
		s.status.LastProgress = p
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}
	})
	metrics.SyncDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SyncRuns.WithLabelValues("failure").Inc()
		s.mu.Lock()
		s.status.Syncing = false
		s.status.LastError = err.Error()
		s.mu.Unlock()

		s.logger.Error().Err(err).Str("run_id", runID).Dur("elapsed", time.Since(start)).
			Msg("[sync] Synchronization failed, keeping previous collection")
		return nil, err
	}

	s.commit(projects)
	metrics.SyncRuns.WithLabelValues("success").Inc()
	s.logger.Info().Str("run_id", runID).Int("projects", len(projects)).Dur("elapsed", time.Since(start)).
		Msg("[sync] Synchronization committed")
	return projects, nil
}

func (s *Synchronizer) commit(projects []*models.Project) {
	if projects == nil {
		projects = []*models.Project{}
	}
	s.snapshot.Store(&projects)

	now := time.Now()
	s.mu.Lock()
	s.status.Syncing = false
	s.status.LastSuccess = now
	s.status.LastError = ""
	s.status.Records = len(projects)
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	metrics.SyncRecords.Set(float64(len(projects)))
	metrics.SyncLastSuccess.Set(float64(now.Unix()))

	for _, fn := range subscribers {
		fn(projects)
	}
}
