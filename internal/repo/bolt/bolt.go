package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/repo"
)

const (
	bucketTargets     = "targets"
	bucketTargetIndex = "target_index" // url -> target id
	bucketResults     = "results"     // targetID|checkedAt -> CheckResult
	bucketAlerts      = "alerts"
	bucketReports     = "reports" // host -> latest Report
)

// Store is the embedded persistent adapter backed by a single bbolt file.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database file and initializes the buckets.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{
			bucketTargets, bucketTargetIndex, bucketResults, bucketAlerts, bucketReports,
		} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ---- TargetStore ----

func (s *Store) Add(ctx context.Context, t *domain.Target) error {
	if t.ID == "" {
		t.ID = domain.TargetID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucketTargets)).Put([]byte(t.ID), raw); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketTargetIndex)).Put([]byte(t.URL), []byte(t.ID))
	})
}

func (s *Store) List(ctx context.Context) ([]*domain.Target, error) {
	var out []*domain.Target
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketTargets)).ForEach(func(_, v []byte) error {
			var t domain.Target
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, &t)
			return nil
		})
	})
	return out, err
}

func (s *Store) GetByURL(ctx context.Context, url string) (*domain.Target, error) {
	var out *domain.Target
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(bucketTargetIndex)).Get([]byte(url))
		if id == nil {
			return nil
		}
		raw := tx.Bucket([]byte(bucketTargets)).Get(id)
		if raw == nil {
			return nil
		}
		var t domain.Target
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		out = &t
		return nil
	})
	return out, err
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	key := string(r.TargetID) + "|" + r.CheckedAt.UTC().Format(time.RFC3339Nano)
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketResults)).Put([]byte(key), raw)
	})
}

func (s *Store) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	latest := make(map[domain.TargetID]*domain.CheckResult)
	urls := make(map[domain.TargetID]string)

	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucketResults)).ForEach(func(_, v []byte) error {
			var r domain.CheckResult
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			cur := latest[r.TargetID]
			if cur == nil || r.CheckedAt.After(cur.CheckedAt) {
				latest[r.TargetID] = &r
			}
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketTargets)).ForEach(func(_, v []byte) error {
			var t domain.Target
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			urls[t.ID] = t.URL
			return nil
		})
	})
	if err != nil {
		return nil, err
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
		out = append(out, repo.LatestRow{
			TargetID:       string(tid),
			URL:            urls[tid],
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

func (s *Store) SaveReport(ctx context.Context, rep *domain.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketReports)).Put([]byte(rep.Host), raw)
	})
}

func (s *Store) LatestReport(ctx context.Context, host string) (*domain.Report, error) {
	var out *domain.Report
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketReports)).Get([]byte(host))
		if raw == nil {
			return nil
		}
		var rep domain.Report
		if err := json.Unmarshal(raw, &rep); err != nil {
			return err
		}
		out = &rep
		return nil
	})
	return out, err
}

// ---- AlertStore ----

type alertRow struct {
	LastState  bool       `json:"last_state"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

func (s *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	var out *repo.AlertRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketAlerts)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var row alertRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		out = &repo.AlertRecord{Key: key, LastState: row.LastState, LastSentAt: row.LastSentAt}
		return nil
	})
	return out, err
}

func (s *Store) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	row := alertRow{LastState: lastState}
	if !sentAt.IsZero() {
		ts := sentAt
		row.LastSentAt = &ts
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketAlerts)).Put([]byte(key), raw)
	})
}
