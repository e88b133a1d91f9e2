package domain

import "time"

// ReachabilityResult is the outcome of a single liveness probe from one
// vantage point. On failure ResponseTimeMs carries the timeout budget so the
// field is never left unset.
type ReachabilityResult struct {
	VantagePoint   string `json:"vantage_point"`
	Alive          bool   `json:"alive"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// HTTPCheckResult reports what a single HTTP(S) request observed. The status
// code is not judged here; 100..599 are all successful observations.
type HTTPCheckResult struct {
	StatusCode     int               `json:"status_code"`
	ResponseTimeMs int64             `json:"response_time_ms"`
	Headers        map[string]string `json:"headers"`
}

type PortState string

const (
	PortOpen   PortState = "open"
	PortClosed PortState = "closed"
)

type PortRecord struct {
	Port    int       `json:"port"`
	Service string    `json:"service"`
	State   PortState `json:"state"`
}

// PortScanResult partitions every scanned port into exactly one of OpenPorts
// or ClosedPorts. ScannedPorts is deduplicated and sorted ascending.
type PortScanResult struct {
	Host           string       `json:"host"`
	ScannedPorts   []int        `json:"scanned_ports"`
	OpenPorts      []PortRecord `json:"open_ports"`
	ClosedPorts    []int        `json:"closed_ports"`
	ScanDurationMs int64        `json:"scan_duration_ms"`
}

// CertificateInfo describes the peer certificate presented during a TLS
// handshake plus the judgments derived from it. Fingerprint is the SHA-1
// form, FingerprintSHA256 the long form.
type CertificateInfo struct {
	Issuer            string    `json:"issuer"`
	Subject           string    `json:"subject"`
	ValidFrom         time.Time `json:"valid_from"`
	ValidTo           time.Time `json:"valid_to"`
	DaysUntilExpiry   int       `json:"days_until_expiry"`
	SerialNumber      string    `json:"serial_number"`
	Fingerprint       string    `json:"fingerprint"`
	FingerprintSHA256 string    `json:"fingerprint_sha256"`
	SubjectAltNames   []string  `json:"subject_alt_names"`
	IsWildcard        bool      `json:"is_wildcard"`
	IsSelfSigned      bool      `json:"is_self_signed"`
	Protocol          string    `json:"protocol"`
	CipherSuite       string    `json:"cipher_suite"`
}

// SSLResult is CertificateInfo plus the overall validity judgment: false when
// the certificate is expired, not yet valid, or self-signed.
type SSLResult struct {
	Domain string `json:"domain"`
	CertificateInfo
	Valid bool `json:"valid"`
}

const slowResponseThresholdMs = 5000

// SlowResponse classifies a response time for UI/alerting. Exactly 5000 ms is
// not slow.
func SlowResponse(ms int64) bool {
	return ms > slowResponseThresholdMs
}
