package domain

import "time"

type TargetID string

// Target is a host the service keeps re-checking in the background.
type Target struct {
	ID        TargetID  `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckResult is a stored snapshot of one scheduled HTTP health check.
type CheckResult struct {
	TargetID       TargetID  `json:"target_id"`
	Up             bool      `json:"up"`
	HTTPStatus     int       `json:"http_status,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Reason         string    `json:"reason,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Report bundles the outcome of a full diagnostic run against one host.
// Sections that failed are absent; their errors are recorded as data so a
// single broken probe never hides the rest.
type Report struct {
	ID           string               `json:"id,omitempty"`
	Host         string               `json:"host"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Reachability []ReachabilityResult `json:"reachability,omitempty"`
	HTTP         *HTTPCheckResult     `json:"http,omitempty"`
	Ports        *PortScanResult      `json:"ports,omitempty"`
	SSL          *SSLResult           `json:"ssl,omitempty"`
	Errors       map[string]string    `json:"errors,omitempty"`
}
