package probe

import (
	"context"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/hamed0406/netdiag/internal/domain"
)

// defaultScanPorts is used when the caller requests a scan without naming
// ports. An empty scan never happens.
var defaultScanPorts = []int{21, 22, 25, 80, 443, 3306, 5432, 8080}

const defaultScanParallel = 64

// PortScanner classifies TCP ports as open or closed via bounded connect
// attempts. Refused, timed out and filtered all map to closed; this layer
// deliberately knows only two states.
type PortScanner struct {
	Timeout  time.Duration // per-port budget, not a global scan budget
	Parallel int
}

func NewPortScanner(timeout time.Duration) *PortScanner {
	if timeout <= 0 {
		timeout = DefaultTimeouts().Port
	}
	return &PortScanner{Timeout: timeout, Parallel: defaultScanParallel}
}

// Scan probes every requested port concurrently and partitions the scanned
// set: each port lands in exactly one of OpenPorts or ClosedPorts.
func (s *PortScanner) Scan(ctx context.Context, host string, ports []int) (domain.PortScanResult, error) {
	host = normalizeHost(host)
	if host == "" {
		return domain.PortScanResult{}, newError(KindValidation, "host must not be empty")
	}
	if len(ports) == 0 {
		ports = defaultScanPorts
	}
	for _, p := range ports {
		if p < 1 || p > 65535 {
			return domain.PortScanResult{}, newError(KindValidation, "port %d outside valid range 1..65535", p)
		}
	}

	scanned := dedupSortPorts(ports)
	records := make([]domain.PortRecord, len(scanned))

	parallel := s.Parallel
	if parallel < 1 {
		parallel = defaultScanParallel
	}

	start := time.Now()
	pl := pool.New().WithMaxGoroutines(parallel)
	for i, port := range scanned {
		i, port := i, port
		pl.Go(func() {
			records[i] = s.probePort(ctx, host, port)
		})
	}
	pl.Wait()
	elapsed := time.Since(start).Milliseconds()

	result := domain.PortScanResult{
		Host:           host,
		ScannedPorts:   scanned,
		OpenPorts:      make([]domain.PortRecord, 0, len(scanned)),
		ClosedPorts:    make([]int, 0, len(scanned)),
		ScanDurationMs: elapsed,
	}
	for _, rec := range records {
		if rec.State == domain.PortOpen {
			result.OpenPorts = append(result.OpenPorts, rec)
		} else {
			result.ClosedPorts = append(result.ClosedPorts, rec.Port)
		}
	}
	return result, nil
}

func (s *PortScanner) probePort(ctx context.Context, host string, port int) domain.PortRecord {
	rec := domain.PortRecord{
		Port:    port,
		Service: ServiceName(port),
		State:   domain.PortClosed,
	}

	cctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(cctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err == nil {
		conn.Close()
		rec.State = domain.PortOpen
	}
	return rec
}

func dedupSortPorts(ports []int) []int {
	seen := make(map[int]struct{}, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
