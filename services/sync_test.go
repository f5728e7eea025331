package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"realestate-insights/models"
)

// stubFetcher returns the queued results in order, blocking on gate when set.
type stubFetcher struct {
	calls   atomic.Int32
	gate    chan struct{}
	mu      sync.Mutex
	results []stubResult
}

type stubResult struct {
	projects []*models.Project
	err      error
}

func (f *stubFetcher) FetchAll(ctx context.Context, onProgress func(models.Progress)) ([]*models.Project, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	f.mu.Unlock()

	if res.err == nil && onProgress != nil {
		onProgress(models.Progress{Loaded: len(res.projects), Total: len(res.projects), Page: 1})
	}
	return res.projects, res.err
}

func TestSynchronizeCommitsAndNotifies(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{projects: sampleProjects()}}}
	s := NewSynchronizer(fetcher, newTestLogger())

	var committed []*models.Project
	s.OnCommit(func(p []*models.Project) { committed = p })

	var progress []models.Progress
	got, err := s.Synchronize(context.Background(), func(p models.Progress) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if len(got) != 4 || len(s.Projects()) != 4 || len(committed) != 4 {
		t.Errorf("expected 4 projects everywhere, got %d/%d/%d", len(got), len(s.Projects()), len(committed))
	}
	if len(progress) != 1 || progress[0].Loaded != 4 {
		t.Errorf("progress: got %+v", progress)
	}

	st := s.Status()
	if st.Syncing || st.Records != 4 || st.LastError != "" || st.LastSuccess.IsZero() {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestSynchronizeFailureKeepsPreviousCollection(t *testing.T) {
	boom := errors.New("catalog down")
	fetcher := &stubFetcher{results: []stubResult{
		{projects: sampleProjects()},
		{err: boom},
	}}
	s := NewSynchronizer(fetcher, newTestLogger())

	commits := 0
	s.OnCommit(func([]*models.Project) { commits++ })

	if _, err := s.Synchronize(context.Background(), nil); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if _, err := s.Synchronize(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("second sync: expected %v, got %v", boom, err)
	}

	if len(s.Projects()) != 4 {
		t.Errorf("committed collection: got %d projects, want 4", len(s.Projects()))
	}
	if commits != 1 {
		t.Errorf("commits: got %d, want 1", commits)
	}
	if s.Status().LastError != boom.Error() {
		t.Errorf("LastError: got %q", s.Status().LastError)
	}
}

func TestSynchronizeJoinsInFlightRun(t *testing.T) {
	fetcher := &stubFetcher{
		gate:    make(chan struct{}),
		results: []stubResult{{projects: sampleProjects()}},
	}
	s := NewSynchronizer(fetcher, newTestLogger())

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Synchronize(context.Background(), nil)
		}(i)
	}

	// Let every caller reach the in-flight run before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("page walks: got %d, want 1", got)
	}
}

func TestSynchronizeEmptyCatalog(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{projects: []*models.Project{}}}}
	s := NewSynchronizer(fetcher, newTestLogger())
	d := NewDashboard(NewInsightService(newTestLogger()), newTestLogger())
	s.OnCommit(d.SetProjects)

	if _, err := s.Synchronize(context.Background(), nil); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}

	r := d.View().Report
	if r.KPIs != (models.KPIs{}) {
		t.Errorf("KPIs: got %+v, want zero", r.KPIs)
	}
	if len(r.ByCity) != 0 || len(r.ByType) != 0 || len(r.ByStandard) != 0 {
		t.Error("expected no grouped entries")
	}
}

func TestSchedulerRunsImmediatelyAndStops(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{projects: sampleProjects()}}}
	s := NewSynchronizer(fetcher, newTestLogger())
	sched := NewScheduler(s, time.Hour, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Serve(ctx) }()

	var ran bool
	for i := 0; i < 50; i++ {
		time.Sleep(10 * time.Millisecond)
		if len(s.Projects()) == 4 {
			ran = true
			break
		}
	}
	if !ran {
		t.Error("scheduler did not run an initial sync")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func TestSchedulerTicks(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{err: errors.New("down")}}}
	s := NewSynchronizer(fetcher, newTestLogger())
	sched := NewScheduler(s, 20*time.Millisecond, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	_ = sched.Serve(ctx)

	if got := fetcher.calls.Load(); got < 3 {
		t.Errorf("fetch calls: got %d, want at least 3", got)
	}
}
