package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/repo"
)

// Store is the default in-memory adapter, used when no DB_PATH is set.
type Store struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]*domain.Target
	results []*domain.CheckResult
	reports map[string]*domain.Report
	alerts  map[string]*repo.AlertRecord
}

func New() *Store {
	return &Store{
		targets: make(map[domain.TargetID]*domain.Target),
		results: make([]*domain.CheckResult, 0, 128),
		reports: make(map[string]*domain.Report),
		alerts:  make(map[string]*repo.AlertRecord),
	}
}

// ---- TargetStore ----

func (m *Store) Add(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = domain.TargetID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.targets[t.ID] = t
	return nil
}

func (m *Store) List(ctx context.Context) ([]*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, t)
	}
	return out, nil
}

func (m *Store) GetByURL(ctx context.Context, url string) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.targets {
		if t.URL == url {
			return t, nil
		}
	}
	return nil, nil
}

// ---- ResultStore ----

func (m *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[domain.TargetID]*domain.CheckResult)
	for _, r := range m.results {
		cur := latest[r.TargetID]
		if cur == nil || r.CheckedAt.After(cur.CheckedAt) {
			latest[r.TargetID] = r
		}
	}

	out := make([]repo.LatestRow, 0, len(latest))
	for tid, r := range latest {
		var status *int
		var ms *int64
		if r.HTTPStatus != 0 {
			v := r.HTTPStatus
			status = &v
		}
		if r.ResponseTimeMs != 0 {
			v := r.ResponseTimeMs
			ms = &v
		}
		url := ""
		if t := m.targets[tid]; t != nil {
			url = t.URL
		}
		out = append(out, repo.LatestRow{
			TargetID:       string(tid),
			URL:            url,
			Up:             r.Up,
			HTTPStatus:     status,
			ResponseTimeMs: ms,
			Reason:         r.Reason,
			CheckedAt:      r.CheckedAt,
		})
	}
	return out, nil
}

// ---- ReportStore ----

func (m *Store) SaveReport(ctx context.Context, rep *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	m.reports[rep.Host] = rep
	return nil
}

func (m *Store) LatestReport(ctx context.Context, host string) (*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reports[host], nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.alerts[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *Store) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &repo.AlertRecord{Key: key, LastState: lastState}
	if !sentAt.IsZero() {
		ts := sentAt
		rec.LastSentAt = &ts
	}
	m.alerts[key] = rec
	return nil
}
