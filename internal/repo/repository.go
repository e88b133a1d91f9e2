package repo

import (
	"context"
	"time"

	"github.com/hamed0406/netdiag/internal/domain"
)

// Ports (interfaces) — swap in any storage adapter.

type TargetStore interface {
	Add(ctx context.Context, t *domain.Target) error
	List(ctx context.Context) ([]*domain.Target, error)
	// GetByURL returns nil, nil when no target matches.
	GetByURL(ctx context.Context, url string) (*domain.Target, error)
}

type ResultStore interface {
	Append(ctx context.Context, r *domain.CheckResult) error
	// Latest returns the newest stored check per target.
	Latest(ctx context.Context) ([]LatestRow, error)
}

// ReportStore keeps the most recent full diagnostic report per host.
type ReportStore interface {
	// SaveReport assigns an ID when the report has none.
	SaveReport(ctx context.Context, rep *domain.Report) error
	// LatestReport returns nil, nil when no report exists for the host.
	LatestReport(ctx context.Context, host string) (*domain.Report, error)
}

// LatestRow is the joined latest-check view used by listings and alerting.
// Pointer fields are nil when the check produced no value.
type LatestRow struct {
	TargetID       string    `json:"target_id"`
	URL            string    `json:"url"`
	Up             bool      `json:"up"`
	HTTPStatus     *int      `json:"http_status,omitempty"`
	ResponseTimeMs *int64    `json:"response_time_ms,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}
