package probe

import (
	"strings"
	"time"
)

// Timeouts carries the fixed per-operation budgets. Every network attempt
// gets its own budget; there is no request-wide deadline spanning a
// multi-target operation.
type Timeouts struct {
	Ping time.Duration // per-vantage-point liveness probe
	HTTP time.Duration // whole HTTP check including redirects
	Port time.Duration // per-port connect attempt
	TLS  time.Duration // TLS dial + handshake
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Ping: 5 * time.Second,
		HTTP: 10 * time.Second,
		Port: 3 * time.Second,
		TLS:  10 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	def := DefaultTimeouts()
	if t.Ping <= 0 {
		t.Ping = def.Ping
	}
	if t.HTTP <= 0 {
		t.HTTP = def.HTTP
	}
	if t.Port <= 0 {
		t.Port = def.Port
	}
	if t.TLS <= 0 {
		t.TLS = def.TLS
	}
	return t
}

// normalizeHost trims and lower-cases a host name or IP literal.
func normalizeHost(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
