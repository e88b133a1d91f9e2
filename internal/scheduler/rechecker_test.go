package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/repo"
)

// --- fakes ---

type fakeTargets struct {
	mu sync.Mutex
	t  []*domain.Target
}

func (f *fakeTargets) Add(ctx context.Context, t *domain.Target) error { return nil }
func (f *fakeTargets) GetByURL(ctx context.Context, url string) (*domain.Target, error) {
	return nil, nil
}
func (f *fakeTargets) List(ctx context.Context) ([]*domain.Target, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t, nil
}

type fakeResults struct {
	mu   sync.Mutex
	n    int
	last *domain.CheckResult
	rows []repo.LatestRow // for alerter tests
}

func (f *fakeResults) Append(ctx context.Context, cr *domain.CheckResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	cp := *cr
	f.last = &cp
	return nil
}

func (f *fakeResults) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

type alwaysOK struct{}

func (a *alwaysOK) Check(ctx context.Context, url string) (domain.HTTPCheckResult, error) {
	return domain.HTTPCheckResult{StatusCode: 200, ResponseTimeMs: 1}, nil
}

// --- tests ---

func TestRechecker_RunOnceViaLoop_AppendsResult(t *testing.T) {
	tstore := &fakeTargets{t: []*domain.Target{{
		ID:        domain.TargetID("T1"),
		URL:       "https://example.com",
		CreatedAt: time.Now().UTC(),
	}}}
	rstore := &fakeResults{}

	rc := NewRechecker(
		zap.NewNop(),
		tstore,
		rstore,
		&alwaysOK{},
		2*time.Millisecond, // Interval (immediate pass + ticks)
		200*time.Millisecond,
		1,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go rc.Run(ctx)

	// Wait a tiny bit for the immediate pass to execute.
	time.Sleep(20 * time.Millisecond)

	rstore.mu.Lock()
	n := rstore.n
	last := rstore.last
	rstore.mu.Unlock()

	if n == 0 || last == nil {
		t.Fatalf("expected at least one Append call, got n=%d", n)
	}
	if last.TargetID != domain.TargetID("T1") || !last.Up || last.HTTPStatus != 200 {
		t.Fatalf("unexpected last result: %+v", last)
	}
}

func TestTargetUp(t *testing.T) {
	cases := []struct {
		status int
		err    error
		want   bool
	}{
		{200, nil, true},
		{301, nil, true},
		{399, nil, true},
		{400, nil, false},
		{503, nil, false},
		{200, context.DeadlineExceeded, false},
	}
	for _, c := range cases {
		got := targetUp(domain.HTTPCheckResult{StatusCode: c.status}, c.err)
		if got != c.want {
			t.Fatalf("targetUp(status=%d, err=%v)=%v want %v", c.status, c.err, got, c.want)
		}
	}
}
