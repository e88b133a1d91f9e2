package probe

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/netdiag/internal/domain"
)

func TestPortScanner_RejectsOutOfRangePorts(t *testing.T) {
	s := NewPortScanner(time.Second)
	for _, bad := range []int{0, -1, 70000, 65536} {
		_, err := s.Scan(context.Background(), "127.0.0.1", []int{80, bad})
		if KindOf(err) != KindValidation {
			t.Fatalf("port %d: want validation error, got %v", bad, err)
		}
		if !strings.Contains(err.Error(), "1..65535") {
			t.Fatalf("port %d: message should name the valid range, got %q", bad, err.Error())
		}
		if !strings.Contains(err.Error(), strconv.Itoa(bad)) {
			t.Fatalf("port %d: message should name the offending value, got %q", bad, err.Error())
		}
	}
}

func TestPortScanner_EmptyHostRejected(t *testing.T) {
	s := NewPortScanner(time.Second)
	if _, err := s.Scan(context.Background(), "", []int{80}); KindOf(err) != KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestPortScanner_DedupAndSort(t *testing.T) {
	s := &PortScanner{Timeout: 200 * time.Millisecond, Parallel: 8}
	out, err := s.Scan(context.Background(), "127.0.0.1", []int{8080, 443, 80, 443, 80})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []int{80, 443, 8080}
	if len(out.ScannedPorts) != len(want) {
		t.Fatalf("duplicates not collapsed: %v", out.ScannedPorts)
	}
	for i, p := range want {
		if out.ScannedPorts[i] != p {
			t.Fatalf("want sorted %v, got %v", want, out.ScannedPorts)
		}
	}
}

func TestPortScanner_PartitionInvariant(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	openPort, _ := strconv.Atoi(portStr)

	// Two almost certainly closed loopback ports plus the open listener.
	ports := []int{openPort, 1, 4}

	s := &PortScanner{Timeout: 500 * time.Millisecond, Parallel: 8}
	out, err := s.Scan(context.Background(), "127.0.0.1", ports)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(out.ScannedPorts) != len(out.OpenPorts)+len(out.ClosedPorts) {
		t.Fatalf("partition broken: scanned=%d open=%d closed=%d",
			len(out.ScannedPorts), len(out.OpenPorts), len(out.ClosedPorts))
	}
	seen := make(map[int]int)
	for _, r := range out.OpenPorts {
		seen[r.Port]++
		if r.State != domain.PortOpen {
			t.Fatalf("open record with state %q", r.State)
		}
	}
	for _, p := range out.ClosedPorts {
		seen[p]++
	}
	for _, p := range out.ScannedPorts {
		if seen[p] != 1 {
			t.Fatalf("port %d appears %d times across open+closed", p, seen[p])
		}
	}

	foundOpen := false
	for _, r := range out.OpenPorts {
		if r.Port == openPort {
			foundOpen = true
		}
	}
	if !foundOpen {
		t.Fatalf("listener port %d not classified open: %+v", openPort, out.OpenPorts)
	}
	if out.ScanDurationMs < 0 {
		t.Fatalf("negative scan duration: %d", out.ScanDurationMs)
	}
}

func TestPortScanner_EmptyPortListUsesDefaults(t *testing.T) {
	s := &PortScanner{Timeout: 300 * time.Millisecond, Parallel: 16}
	out, err := s.Scan(context.Background(), "127.0.0.1", nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out.ScannedPorts) != len(defaultScanPorts) {
		t.Fatalf("want default set of %d ports, got %v", len(defaultScanPorts), out.ScannedPorts)
	}
	for i := 1; i < len(out.ScannedPorts); i++ {
		if out.ScannedPorts[i-1] >= out.ScannedPorts[i] {
			t.Fatalf("scanned ports not strictly ascending: %v", out.ScannedPorts)
		}
	}
}

func TestServiceName(t *testing.T) {
	cases := []struct {
		port int
		want string
	}{
		{22, "SSH"},
		{80, "HTTP"},
		{443, "HTTPS"},
		{5432, "PostgreSQL"},
		{54321, "Unknown"},
	}
	for _, c := range cases {
		if got := ServiceName(c.port); got != c.want {
			t.Fatalf("ServiceName(%d)=%q want %q", c.port, got, c.want)
		}
	}
}
