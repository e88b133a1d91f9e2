// Package probe implements the network diagnostic engine: reachability
// probing, HTTP health checks, TCP port scanning and TLS certificate
// inspection. Each probe request is stateless; every transport resource is
// opened and torn down within the call that needed it.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/netdiag/internal/domain"
)

// Diagnostics is the facade external callers go through. It normalizes
// inputs, dispatches to the probes and logs outcomes; it never produces a
// protocol response itself.
type Diagnostics struct {
	log    *zap.Logger
	Pinger *Pinger
	HTTP   *HTTPChecker
	Ports  *PortScanner
	SSL    *SSLInspector
}

func NewDiagnostics(log *zap.Logger, t Timeouts) *Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	t = t.withDefaults()
	return &Diagnostics{
		log:    log,
		Pinger: NewPinger(t.Ping),
		HTTP:   NewHTTPChecker(t.HTTP),
		Ports:  NewPortScanner(t.Port),
		SSL:    NewSSLInspector(t.TLS),
	}
}

func (d *Diagnostics) Ping(ctx context.Context, host string, vantagePoints []string) ([]domain.ReachabilityResult, error) {
	results, err := d.Pinger.Probe(ctx, host, vantagePoints)
	if err != nil {
		d.log.Warn("ping_rejected", zap.String("host", host), zap.Error(err))
		return nil, err
	}
	alive := 0
	for _, r := range results {
		if r.Alive {
			alive++
		}
	}
	d.log.Info("ping_probe",
		zap.String("host", host),
		zap.Int("vantage_points", len(results)),
		zap.Int("alive", alive),
	)
	return results, nil
}

func (d *Diagnostics) CheckHTTP(ctx context.Context, url string) (domain.HTTPCheckResult, error) {
	out, err := d.HTTP.Check(ctx, url)
	if err != nil {
		d.log.Warn("http_check_failed",
			zap.String("url", url),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		return out, err
	}
	d.log.Info("http_check",
		zap.String("url", url),
		zap.Int("status", out.StatusCode),
		zap.Int64("response_time_ms", out.ResponseTimeMs),
		zap.Bool("slow", domain.SlowResponse(out.ResponseTimeMs)),
	)
	return out, nil
}

func (d *Diagnostics) ScanPorts(ctx context.Context, host string, ports []int) (domain.PortScanResult, error) {
	out, err := d.Ports.Scan(ctx, host, ports)
	if err != nil {
		d.log.Warn("port_scan_rejected", zap.String("host", host), zap.Error(err))
		return out, err
	}
	d.log.Info("port_scan",
		zap.String("host", out.Host),
		zap.Int("scanned", len(out.ScannedPorts)),
		zap.Int("open", len(out.OpenPorts)),
		zap.Int64("duration_ms", out.ScanDurationMs),
	)
	return out, nil
}

func (d *Diagnostics) InspectSSL(ctx context.Context, dom string) (domain.SSLResult, error) {
	out, err := d.SSL.Inspect(ctx, dom)
	if err != nil {
		d.log.Warn("ssl_inspect_failed",
			zap.String("domain", dom),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		return out, err
	}
	d.log.Info("ssl_inspect",
		zap.String("domain", out.Domain),
		zap.String("issuer", out.Issuer),
		zap.Int("days_until_expiry", out.DaysUntilExpiry),
		zap.Bool("valid", out.Valid),
	)
	return out, nil
}

// Report fans out all four probes against one host and joins on all of them.
// Section failures are recorded in Report.Errors; the returned error is
// non-nil only when every section failed.
func (d *Diagnostics) Report(ctx context.Context, host string) (domain.Report, error) {
	host = normalizeHost(host)
	if host == "" {
		return domain.Report{}, newError(KindValidation, "host must not be empty")
	}

	rep := domain.Report{
		Host:        host,
		GeneratedAt: time.Now().UTC(),
		Errors:      map[string]string{},
	}

	var pingErr, httpErr, portErr, sslErr error

	var wg conc.WaitGroup
	wg.Go(func() {
		rep.Reachability, pingErr = d.Ping(ctx, host, nil)
	})
	wg.Go(func() {
		// HTTPS preferred, plain HTTP as fallback.
		out, err := d.CheckHTTP(ctx, "https://"+host)
		if err != nil {
			if out2, err2 := d.CheckHTTP(ctx, "http://"+host); err2 == nil {
				out, err = out2, nil
			}
		}
		if err != nil {
			httpErr = err
			return
		}
		rep.HTTP = &out
	})
	wg.Go(func() {
		out, err := d.ScanPorts(ctx, host, nil)
		if err != nil {
			portErr = err
			return
		}
		rep.Ports = &out
	})
	wg.Go(func() {
		out, err := d.InspectSSL(ctx, host)
		if err != nil {
			sslErr = err
			return
		}
		rep.SSL = &out
	})
	wg.Wait()

	sections := []struct {
		name string
		err  error
	}{
		{"reachability", pingErr},
		{"http", httpErr},
		{"ports", portErr},
		{"ssl", sslErr},
	}

	var combined error
	failed := 0
	for _, s := range sections {
		if s.err == nil {
			continue
		}
		failed++
		rep.Errors[s.name] = s.err.Error()
		combined = multierr.Append(combined, fmt.Errorf("%s: %w", s.name, s.err))
	}

	d.log.Info("diagnostic_report",
		zap.String("host", host),
		zap.Int("sections_failed", failed),
	)

	if failed == len(sections) {
		return rep, combined
	}
	return rep, nil
}
