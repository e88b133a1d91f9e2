package scheduler

import (
	"context"
	"time"

	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/probe"
)

// RetryChecker wraps a Checker and retries transient failures with a fixed
// backoff. Validation errors are never retried; the input will not get
// better on its own.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, url string) (domain.HTTPCheckResult, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var out domain.HTTPCheckResult
	var err error
	for i := 0; i < attempts; i++ {
		out, err = r.Inner.Check(ctx, url)
		if err == nil || probe.IsKind(err, probe.KindValidation) {
			return out, err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return out, err
			case <-time.After(r.Backoff):
			}
		}
	}
	return out, err
}
