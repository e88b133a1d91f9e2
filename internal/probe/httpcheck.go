package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/netdiag/internal/domain"
)

const (
	maxRedirects = 5
	userAgent    = "netdiag/1.0"
)

// HTTPChecker performs a single HTTP(S) request and reports what it observed.
// Status codes are never judged here — a 503 is a successful check outcome.
type HTTPChecker struct {
	Client  *http.Client
	Timeout time.Duration
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeouts().HTTP
	}
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			DisableKeepAlives:     true, // no socket reuse across calls
		},
	}
	return &HTTPChecker{Client: client, Timeout: timeout}
}

// Check issues exactly one GET with bounded redirects. Timing covers dispatch
// through receipt of status and headers.
func (c *HTTPChecker) Check(ctx context.Context, rawURL string) (domain.HTTPCheckResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return domain.HTTPCheckResult{}, newError(KindValidation, "url must start with http:// or https://, got %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.HTTPCheckResult{}, wrapError(KindValidation, err, "invalid url %q", rawURL)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.Client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		// The redirect cap hands back the last response alongside the error.
		// A captured status beats a raised error: degrade gracefully.
		if resp != nil {
			out := resultFromResponse(resp)
			resp.Body.Close()
			return out, nil
		}
		return domain.HTTPCheckResult{}, c.classify(err)
	}
	defer resp.Body.Close()

	out := resultFromResponse(resp)
	out.ResponseTimeMs = elapsed
	return out, nil
}

// resultFromResponse copies status and headers verbatim into a flat map.
// ResponseTimeMs stays 0; the caller fills it on the non-degraded path.
func resultFromResponse(resp *http.Response) domain.HTTPCheckResult {
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}
	return domain.HTTPCheckResult{StatusCode: resp.StatusCode, Headers: headers}
}

func (c *HTTPChecker) classify(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return wrapError(KindTimeout, err, "request exceeded %s budget", c.Timeout)
	case isUnreachable(err):
		return wrapError(KindHostUnreachable, err, "host unreachable")
	default:
		return wrapError(KindHTTPCheckFailed, err, "http check failed")
	}
}

func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable")
}
