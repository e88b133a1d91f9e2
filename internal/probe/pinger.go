package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/hamed0406/netdiag/internal/domain"
)

// defaultVantagePoints are the built-in logical probe origins used when the
// caller supplies fewer than three valid names. They may share one network
// path; independence is logical, not topological.
var defaultVantagePoints = []string{"primary", "secondary", "fallback"}

// defaultLivenessPorts are tried in order within one probe's budget. A TCP
// connect stands in for ICMP, which needs privileges we don't assume.
var defaultLivenessPorts = []string{"80", "443", "22"}

// Pinger issues liveness probes against a host from several vantage points in
// parallel. A failing vantage point never fails its siblings or the call.
type Pinger struct {
	Timeout time.Duration
	Ports   []string // connect targets tried in order; defaults to 80,443,22
}

func NewPinger(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = DefaultTimeouts().Ping
	}
	return &Pinger{Timeout: timeout, Ports: defaultLivenessPorts}
}

// Probe fans out one liveness probe per vantage point and joins on all of
// them. Result ordering matches the vantage-point ordering.
func (p *Pinger) Probe(ctx context.Context, host string, vantagePoints []string) ([]domain.ReachabilityResult, error) {
	host = normalizeHost(host)
	if host == "" {
		return nil, newError(KindValidation, "host must not be empty")
	}

	vps := selectVantagePoints(vantagePoints)
	results := make([]domain.ReachabilityResult, len(vps))

	var wg conc.WaitGroup
	for i, vp := range vps {
		i, vp := i, vp
		wg.Go(func() {
			results[i] = p.probeOnce(ctx, host, vp)
		})
	}
	wg.Wait()

	return results, nil
}

// selectVantagePoints keeps the caller's first three valid names, or falls
// back to the built-in defaults when fewer than three survive.
func selectVantagePoints(names []string) []string {
	valid := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			valid = append(valid, n)
		}
	}
	if len(valid) >= len(defaultVantagePoints) {
		return valid[:len(defaultVantagePoints)]
	}
	return defaultVantagePoints
}

func (p *Pinger) probeOnce(ctx context.Context, host, vantagePoint string) domain.ReachabilityResult {
	ports := p.Ports
	if len(ports) == 0 {
		ports = defaultLivenessPorts
	}

	// One budget for the whole probe, shared across candidate ports.
	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	for _, port := range ports {
		conn, err := d.DialContext(cctx, "tcp", net.JoinHostPort(host, port))
		if err != nil {
			continue
		}
		conn.Close()
		return domain.ReachabilityResult{
			VantagePoint:   vantagePoint,
			Alive:          true,
			ResponseTimeMs: time.Since(start).Milliseconds(),
		}
	}

	// Timeout, unreachable, resolution failure: all collapse into a data
	// value; the response time reports the budget, never zero/unset.
	return domain.ReachabilityResult{
		VantagePoint:   vantagePoint,
		Alive:          false,
		ResponseTimeMs: p.Timeout.Milliseconds(),
	}
}
