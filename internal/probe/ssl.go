package probe

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/hamed0406/netdiag/internal/domain"
)

const httpsPort = "443"

// SSLInspector opens a TLS session and reports the certificate the peer
// presents. Chain verification is disabled on the dial: trust is a derived
// judgment in the result, not a precondition for inspecting.
type SSLInspector struct {
	Timeout time.Duration
	Port    string // defaults to 443
}

func NewSSLInspector(timeout time.Duration) *SSLInspector {
	if timeout <= 0 {
		timeout = DefaultTimeouts().TLS
	}
	return &SSLInspector{Timeout: timeout, Port: httpsPort}
}

// Inspect normalizes the input to a bare hostname, performs the handshake and
// derives the validity judgments.
func (i *SSLInspector) Inspect(ctx context.Context, rawDomain string) (domain.SSLResult, error) {
	host := NormalizeDomain(rawDomain)
	if host == "" {
		return domain.SSLResult{}, newError(KindValidation, "domain must not be empty")
	}

	port := i.Port
	if port == "" {
		port = httpsPort
	}

	cctx, cancel := context.WithTimeout(ctx, i.Timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: i.Timeout},
		Config: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // report, don't enforce
			ServerName:         host,
		},
	}
	conn, err := dialer.DialContext(cctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return domain.SSLResult{}, i.classify(err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return domain.SSLResult{}, newError(KindSSLCheckFailed, "no certificate found for %s", host)
	}

	now := time.Now()
	cert := state.PeerCertificates[0]
	info := certificateInfo(cert, host, now)
	info.Protocol = tlsVersionName(state.Version)
	info.CipherSuite = tls.CipherSuiteName(state.CipherSuite)

	valid := true
	if now.After(cert.NotAfter) || now.Before(cert.NotBefore) || info.IsSelfSigned {
		valid = false
	}

	return domain.SSLResult{
		Domain:          host,
		CertificateInfo: info,
		Valid:           valid,
	}, nil
}

// NormalizeDomain lower-cases and strips scheme, path and port, leaving a
// bare hostname: "https://EXAMPLE.com:8443/path" becomes "example.com".
func NormalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripScheme(s)
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		s = s[:idx]
	}
	return s
}

func stripScheme(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return s
}

func certificateInfo(cert *x509.Certificate, host string, now time.Time) domain.CertificateInfo {
	issuer := cert.Issuer.CommonName
	if issuer == "" {
		issuer = firstOrg(cert.Issuer.Organization)
	}
	if issuer == "" {
		issuer = "Unknown Issuer"
	}

	subject := cert.Subject.CommonName
	if subject == "" {
		subject = host
	}

	sans := subjectAltNames(cert)

	wildcard := strings.HasPrefix(subject, "*.")
	if !wildcard {
		for _, san := range sans {
			if strings.HasPrefix(san, "*.") {
				wildcard = true
				break
			}
		}
	}

	// CN and org string equality only; no chain validation happens here.
	selfSigned := cert.Issuer.CommonName == cert.Subject.CommonName &&
		firstOrg(cert.Issuer.Organization) == firstOrg(cert.Subject.Organization)

	sha1Sum := sha1.Sum(cert.Raw)
	sha256Sum := sha256.Sum256(cert.Raw)

	return domain.CertificateInfo{
		Issuer:            issuer,
		Subject:           subject,
		ValidFrom:         cert.NotBefore,
		ValidTo:           cert.NotAfter,
		DaysUntilExpiry:   daysUntilExpiry(cert.NotAfter, now),
		SerialNumber:      strings.ToUpper(cert.SerialNumber.Text(16)),
		Fingerprint:       hexColons(sha1Sum[:]),
		FingerprintSHA256: hexColons(sha256Sum[:]),
		SubjectAltNames:   sans,
		IsWildcard:        wildcard,
		IsSelfSigned:      selfSigned,
	}
}

// subjectAltNames collects DNS and IP entries, scheme-stripped, deduplicated
// in first-seen order.
func subjectAltNames(cert *x509.Certificate) []string {
	out := make([]string, 0, len(cert.DNSNames)+len(cert.IPAddresses))
	seen := make(map[string]struct{}, cap(out))
	add := func(name string) {
		name = stripScheme(strings.ToLower(strings.TrimSpace(name)))
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, n := range cert.DNSNames {
		add(n)
	}
	for _, ip := range cert.IPAddresses {
		add(ip.String())
	}
	return out
}

// daysUntilExpiry is the ceiling of (validTo - now) in days. Negative once
// the certificate is expired.
func daysUntilExpiry(validTo, now time.Time) int {
	const day = 24 * time.Hour
	d := validTo.Sub(now)
	days := d / day
	if d > 0 && d%day != 0 {
		days++ // ceiling: partial days count as a full day remaining
	}
	return int(days)
}

func firstOrg(orgs []string) string {
	if len(orgs) > 0 {
		return orgs[0]
	}
	return ""
}

func hexColons(sum []byte) string {
	h := strings.ToUpper(hex.EncodeToString(sum))
	parts := make([]string, 0, len(h)/2)
	for i := 0; i < len(h); i += 2 {
		parts = append(parts, h[i:i+2])
	}
	return strings.Join(parts, ":")
}

func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "Unknown"
	}
}

func (i *SSLInspector) classify(err error) error {
	var dnsErr *net.DNSError
	var ne net.Error
	msg := err.Error()
	switch {
	case errors.As(err, &dnsErr), strings.Contains(msg, "no such host"):
		return wrapError(KindDomainNotFound, err, "domain not found")
	case strings.Contains(msg, "connection refused"):
		return wrapError(KindSSLNotAvailable, err, "target does not accept TLS connections")
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return wrapError(KindTimeout, err, "tls handshake exceeded %s budget", i.Timeout)
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "x509"):
		return wrapError(KindInvalidCertificate, err, "certificate validation failed")
	default:
		return wrapError(KindSSLCheckFailed, err, "ssl check failed")
	}
}

// IsExpiringWithin30Days reports a certificate in its final 30 valid days.
// Mutually exclusive with IsCertificateExpired for every input.
func IsExpiringWithin30Days(daysUntilExpiry int) bool {
	return daysUntilExpiry > 0 && daysUntilExpiry <= 30
}

// IsCertificateExpired reports a certificate past its validity window.
func IsCertificateExpired(daysUntilExpiry int) bool {
	return daysUntilExpiry < 0
}
