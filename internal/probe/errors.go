package probe

import (
	"errors"
	"fmt"
)

// Kind classifies a probe failure so callers can map it to retry policy and
// protocol responses without parsing messages.
type Kind string

const (
	// KindValidation: malformed or missing input. Client's fault, not retried.
	KindValidation Kind = "validation"
	// KindTimeout: the operation exceeded its budget. Safe to retry.
	KindTimeout Kind = "timeout"
	// KindHostUnreachable: name resolution or connection failure on an HTTP
	// check. Safe to retry after a delay.
	KindHostUnreachable Kind = "host_unreachable"
	// KindDomainNotFound: the inspected domain does not resolve.
	KindDomainNotFound Kind = "domain_not_found"
	// KindSSLNotAvailable: the target refused the TLS port; it likely does
	// not serve HTTPS.
	KindSSLNotAvailable Kind = "ssl_not_available"
	// KindInvalidCertificate: a certificate was presented but is semantically
	// broken.
	KindInvalidCertificate Kind = "invalid_certificate"
	// KindHTTPCheckFailed / KindSSLCheckFailed: anything else observed from
	// the transport layer.
	KindHTTPCheckFailed Kind = "http_check_failed"
	KindSSLCheckFailed  Kind = "ssl_check_failed"
)

// Error is the typed failure returned by single-target operations. Per-unit
// failures inside multi-target operations never surface as an Error; they
// become data (alive=false, state=closed).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind carried by err, or "" when err is not a probe
// error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
