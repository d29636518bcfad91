// SPDX-License-Identifier: MPL-2.0

package urlcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultTimeout bounds a single check, redirects included.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is a desktop browser user agent. Several hosts serve
	// errors or challenge pages to anything that does not look like one.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.3; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.116 Safari/537.36"

	// maxDrainBytes is how much of a response body is read before closing,
	// so the connection can be reused.
	maxDrainBytes = 64 << 10

	permanentRedirectReason = "Permanent Redirect"
	cloudflareServer        = "cloudflare"
)

type (
	// Checker issues reachability checks for single URLs.
	Checker struct {
		client    *http.Client
		transport http.RoundTripper
		proxy     ProxyConfig
		timeout   time.Duration
		userAgent string
		logger    *log.Logger

		// setupErr is a proxy configuration error reported by every check.
		setupErr error
	}

	// CheckerOption configures a Checker during construction.
	CheckerOption func(*Checker)
)

// WithProxy routes requests through the given proxy.
func WithProxy(p ProxyConfig) CheckerOption {
	return func(c *Checker) {
		c.proxy = p
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) CheckerOption {
	return func(c *Checker) {
		c.timeout = d
	}
}

// WithTransport replaces the HTTP transport, primarily for tests. Proxy
// settings are ignored when a custom transport is supplied.
func WithTransport(rt http.RoundTripper) CheckerOption {
	return func(c *Checker) {
		c.transport = rt
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) CheckerOption {
	return func(c *Checker) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for accepted anomalies and failures.
func WithLogger(l *log.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = l
	}
}

// NewChecker creates a Checker with a 30 second timeout and a direct
// connection unless options say otherwise.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "urlcheck"}),
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := c.transport
	if rt == nil {
		t, err := newTransport(c.proxy)
		if err != nil {
			c.setupErr = err
		}
		rt = t
	}

	// The default redirect policy follows up to 10 hops.
	c.client = &http.Client{
		Transport: rt,
		Timeout:   c.timeout,
	}
	return c
}

// Err returns the error that prevented the transport from being configured,
// such as an unparsable proxy address. Every Check of such a Checker fails
// with ReasonRequestFailed.
func (c *Checker) Err() error {
	return c.setupErr
}

// IsValid reports whether u passes the reachability check.
func (c *Checker) IsValid(ctx context.Context, u *url.URL) bool {
	return c.Check(ctx, u).Valid
}

// Check runs the reachability decision procedure for u. It never returns an
// error: every failure is folded into the Verdict.
func (c *Checker) Check(ctx context.Context, u *url.URL) Verdict {
	if u == nil {
		return Verdict{Valid: true, Reason: ReasonNoURL}
	}

	v := Verdict{URL: u.String()}
	scheme := strings.ToLower(u.Scheme)

	if scheme == "mailto" {
		// mailto links are not allowed in package content.
		v.Reason = ReasonMailto
		return v
	}
	if scheme != "http" && scheme != "https" {
		v.Valid = true
		v.Reason = ReasonUnsupportedScheme
		return v
	}

	if c.setupErr != nil {
		v.Reason = ReasonRequestFailed
		v.Err = c.setupErr
		c.logger.Warn("Error validating URL", "url", v.URL, "err", c.setupErr)
		return v
	}

	resp, err := c.do(ctx, u)
	if err != nil {
		v.Err = err
		if IsTransientError(err) {
			c.logger.Warn("Error validating URL", "url", v.URL, "err", err)
			c.logger.Warn("Likely caused by missing TLS ciphers on this host; treating the URL as valid")
			v.Valid = true
			v.Reason = ReasonTransientNetwork
			return v
		}
		c.logger.Warn("Error validating URL", "url", v.URL, "err", err)
		v.Reason = ReasonRequestFailed
		return v
	}
	defer drainAndClose(resp.Body)

	v.StatusCode = resp.StatusCode
	v.Valid, v.Reason = c.classify(v.URL, resp)
	return v
}

// classify maps a response to a verdict, checking the accepted anomalies
// before the plain 200 rule.
func (c *Checker) classify(rawURL string, resp *http.Response) (bool, Reason) {
	switch {
	case reasonPhrase(resp) == permanentRedirectReason:
		c.logger.Warn("Received a Permanent Redirect reason phrase; assuming the URL is valid", "url", rawURL,
			"issue", "https://github.com/chocolatey/package-validator/issues/247")
		return true, ReasonPermanentRedirect
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("Server") == cloudflareServer:
		c.logger.Warn("Received a Forbidden response from Cloudflare, most likely a captcha challenge; assuming the URL is valid",
			"url", rawURL, "issue", "https://github.com/chocolatey/package-validator/issues/229")
		return true, ReasonCloudflareChallenge
	case resp.StatusCode == http.StatusFound:
		c.logger.Warn("Received a 302 response; assuming the URL is valid", "url", rawURL,
			"issue", "https://github.com/chocolatey/package-validator/issues/254")
		return true, ReasonFound
	case resp.StatusCode == http.StatusOK:
		return true, ReasonOK
	default:
		c.logger.Debug("URL returned an unexpected status", "url", rawURL, "status", resp.Status)
		return false, ReasonUnexpectedStatus
	}
}

func (c *Checker) do(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setBrowserHeaders(req.Header, c.userAgent)

	c.logger.Debug("Checking URL", "url", u.String(), "proxy", c.proxy.Enabled())
	return c.client.Do(req) //nolint:gosec // checking arbitrary package URLs is the point
}

// setBrowserHeaders applies the header set of a navigating desktop browser.
func setBrowserHeaders(h http.Header, userAgent string) {
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Site", "cross-site")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Accept-Language", "en-GB,en-US;q=0.8,en;q=0.6,de-DE;q=0.4,de;q=0.2")
}

// newTransport builds a transport for p. Without a proxy address the
// connection is direct; environment proxy variables are not consulted.
func newTransport(p ProxyConfig) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	if !p.Enabled() {
		return t, nil
	}

	proxyURL, err := parseProxyAddress(p.Address)
	if err != nil {
		return t, err
	}
	if p.Authenticated() {
		proxyURL.User = url.UserPassword(p.Username, p.Password)
	}
	t.Proxy = http.ProxyURL(proxyURL)
	return t, nil
}

// parseProxyAddress accepts "host:port" as well as full proxy URLs.
func parseProxyAddress(addr string) (*url.URL, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy address %q: missing host", addr)
	}
	return u, nil
}

// reasonPhrase extracts the text after the status code, e.g. "Not Found"
// from "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	_ = body.Close()
}

// IsURLValid checks a single URL with a fresh Checker.
func IsURLValid(ctx context.Context, u *url.URL, proxy ProxyConfig) bool {
	return NewChecker(WithProxy(proxy)).IsValid(ctx, u)
}
