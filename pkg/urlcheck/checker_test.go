// SPDX-License-Identifier: MPL-2.0

package urlcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers every request with a canned response or error and
// counts the calls it receives.
type fakeTransport struct {
	mu       sync.Mutex
	calls    int
	requests []*http.Request
	respond  func(*http.Request) (*http.Response, error)
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func statusResponder(code int, status string, header http.Header) func(*http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		if header == nil {
			header = http.Header{}
		}
		if status == "" {
			status = fmt.Sprintf("%d %s", code, http.StatusText(code))
		}
		return &http.Response{
			StatusCode: code,
			Status:     status,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader("body")),
			Request:    req,
		}, nil
	}
}

func errorResponder(err error) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return nil, err
	}
}

func quietChecker(rt http.RoundTripper, opts ...CheckerOption) *Checker {
	base := []CheckerOption{WithLogger(log.New(io.Discard))}
	if rt != nil {
		base = append(base, WithTransport(rt))
	}
	return NewChecker(append(base, opts...)...)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCheck_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		code       int
		status     string
		header     http.Header
		wantValid  bool
		wantReason Reason
	}{
		{name: "200 ok", code: http.StatusOK, wantValid: true, wantReason: ReasonOK},
		{name: "302 found", code: http.StatusFound, wantValid: true, wantReason: ReasonFound},
		{name: "404 not found", code: http.StatusNotFound, wantValid: false, wantReason: ReasonUnexpectedStatus},
		{name: "500 server error", code: http.StatusInternalServerError, wantValid: false, wantReason: ReasonUnexpectedStatus},
		{
			name: "403 from cloudflare", code: http.StatusForbidden,
			header:    http.Header{"Server": []string{"cloudflare"}},
			wantValid: true, wantReason: ReasonCloudflareChallenge,
		},
		{
			name: "403 from another server", code: http.StatusForbidden,
			header:    http.Header{"Server": []string{"nginx"}},
			wantValid: false, wantReason: ReasonUnexpectedStatus,
		},
		{
			name: "permanent redirect reason phrase", code: http.StatusPermanentRedirect,
			status:    "308 Permanent Redirect",
			wantValid: true, wantReason: ReasonPermanentRedirect,
		},
		{
			name: "permanent redirect phrase on odd code", code: 399,
			status:    "399 Permanent Redirect",
			wantValid: true, wantReason: ReasonPermanentRedirect,
		},
		{name: "204 no content", code: http.StatusNoContent, wantValid: false, wantReason: ReasonUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := &fakeTransport{respond: statusResponder(tt.code, tt.status, tt.header)}
			c := quietChecker(rt)

			v := c.Check(t.Context(), mustParse(t, "https://example.com/pkg"))
			assert.Equal(t, tt.wantValid, v.Valid)
			assert.Equal(t, tt.wantReason, v.Reason)
			assert.Equal(t, tt.code, v.StatusCode)
			assert.Equal(t, 1, rt.Calls())
		})
	}
}

func TestCheck_NoRequestSchemes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantValid  bool
		wantReason Reason
	}{
		{name: "mailto", raw: "mailto:maintainer@example.com", wantValid: false, wantReason: ReasonMailto},
		{name: "mailto upper case", raw: "MAILTO:maintainer@example.com", wantValid: false, wantReason: ReasonMailto},
		{name: "ftp", raw: "ftp://host/file.zip", wantValid: true, wantReason: ReasonUnsupportedScheme},
		{name: "file", raw: "file:///c:/tools", wantValid: true, wantReason: ReasonUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := &fakeTransport{respond: statusResponder(http.StatusOK, "", nil)}
			c := quietChecker(rt)

			v := c.Check(t.Context(), mustParse(t, tt.raw))
			assert.Equal(t, tt.wantValid, v.Valid)
			assert.Equal(t, tt.wantReason, v.Reason)
			assert.Zero(t, rt.Calls(), "no request may be sent")
		})
	}
}

func TestCheck_NilURL(t *testing.T) {
	t.Parallel()

	rt := &fakeTransport{respond: statusResponder(http.StatusOK, "", nil)}
	v := quietChecker(rt).Check(t.Context(), nil)

	assert.True(t, v.Valid)
	assert.Equal(t, ReasonNoURL, v.Reason)
	assert.Zero(t, rt.Calls())
}

func TestCheck_TransportErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantValid  bool
		wantReason Reason
	}{
		{
			name:      "connection reset during handshake",
			err:       fmt.Errorf("tls handshake: %w", errors.New("read tcp 10.0.0.1:443: read: connection reset by peer")),
			wantValid: true, wantReason: ReasonTransientNetwork,
		},
		{
			name:      "cipher mismatch",
			err:       errors.New("remote error: tls: handshake failure"),
			wantValid: true, wantReason: ReasonTransientNetwork,
		},
		{
			name:      "dns failure",
			err:       errors.New("dial tcp: lookup nowhere.invalid: no such host"),
			wantValid: false, wantReason: ReasonRequestFailed,
		},
		{
			name:      "connection refused",
			err:       errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
			wantValid: false, wantReason: ReasonRequestFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := &fakeTransport{respond: errorResponder(tt.err)}
			v := quietChecker(rt).Check(t.Context(), mustParse(t, "https://example.com"))

			assert.Equal(t, tt.wantValid, v.Valid)
			assert.Equal(t, tt.wantReason, v.Reason)
			require.Error(t, v.Err)
			assert.NotEmpty(t, v.ErrorText())
			assert.Equal(t, 1, rt.Calls())
		})
	}
}

func TestCheck_SendsBrowserHeaders(t *testing.T) {
	t.Parallel()

	rt := &fakeTransport{respond: statusResponder(http.StatusOK, "", nil)}
	require.True(t, quietChecker(rt).IsValid(t.Context(), mustParse(t, "https://example.com/")))
	require.Len(t, rt.requests, 1)

	req := rt.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, DefaultUserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, "keep-alive", req.Header.Get("Connection"))
	assert.Equal(t, "navigate", req.Header.Get("Sec-Fetch-Mode"))
	assert.Equal(t, "document", req.Header.Get("Sec-Fetch-Dest"))
	assert.Equal(t, "cross-site", req.Header.Get("Sec-Fetch-Site"))
	assert.Equal(t, "?1", req.Header.Get("Sec-Fetch-User"))
	assert.Equal(t, "1", req.Header.Get("Upgrade-Insecure-Requests"))
	assert.Contains(t, req.Header.Get("Accept"), "text/html")
	assert.Contains(t, req.Header.Get("Accept-Language"), "en-GB")
	assert.Equal(t, "gzip, deflate, br", req.Header.Get("Accept-Encoding"))
}

func TestCheck_CustomUserAgent(t *testing.T) {
	t.Parallel()

	rt := &fakeTransport{respond: statusResponder(http.StatusOK, "", nil)}
	c := quietChecker(rt, WithUserAgent("pkgvet-test/1.0"))
	c.Check(t.Context(), mustParse(t, "https://example.com/"))

	require.Len(t, rt.requests, 1)
	assert.Equal(t, "pkgvet-test/1.0", rt.requests[0].Header.Get("User-Agent"))
}

func TestCheck_FollowsRedirects(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	v := quietChecker(nil).Check(t.Context(), mustParse(t, srv.URL+"/old"))
	assert.True(t, v.Valid)
	assert.Equal(t, ReasonOK, v.Reason)
}

func TestCheck_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	v := quietChecker(nil, WithTimeout(50*time.Millisecond)).Check(t.Context(), mustParse(t, srv.URL))
	assert.False(t, v.Valid)
	assert.Equal(t, ReasonRequestFailed, v.Reason)
}

func TestCheck_Proxy(t *testing.T) {
	t.Parallel()

	var gotAuth, gotTarget atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Proxy-Authorization"))
		gotTarget.Store(r.URL.String())
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(proxy.Close)

	tests := []struct {
		name     string
		cfg      ProxyConfig
		wantAuth bool
	}{
		{name: "unauthenticated", cfg: ProxyConfig{Address: proxy.URL}},
		{name: "without scheme", cfg: ProxyConfig{Address: strings.TrimPrefix(proxy.URL, "http://")}},
		{name: "username only", cfg: ProxyConfig{Address: proxy.URL, Username: "alice"}},
		{name: "authenticated", cfg: ProxyConfig{Address: proxy.URL, Username: "alice", Password: "s3cret"}, wantAuth: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Subtests share the proxy recorder, so they run sequentially.
			c := quietChecker(nil, WithProxy(tt.cfg))
			v := c.Check(t.Context(), mustParse(t, "http://pkgvet.invalid/page"))

			require.True(t, v.Valid, "err: %v", v.Err)
			assert.Equal(t, "http://pkgvet.invalid/page", gotTarget.Load())
			if tt.wantAuth {
				assert.True(t, strings.HasPrefix(gotAuth.Load().(string), "Basic "))
			} else {
				assert.Empty(t, gotAuth.Load())
			}
		})
	}
}

func TestCheck_InvalidProxyAddress(t *testing.T) {
	t.Parallel()

	c := quietChecker(nil, WithProxy(ProxyConfig{Address: "http://"}))
	require.Error(t, c.Err())
	v := c.Check(t.Context(), mustParse(t, "https://example.com"))

	assert.False(t, v.Valid)
	assert.Equal(t, ReasonRequestFailed, v.Reason)
	require.Error(t, v.Err)
	assert.Contains(t, v.Err.Error(), "proxy")
}

func TestCheck_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	rt := &fakeTransport{respond: func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	}}
	v := quietChecker(rt).Check(ctx, mustParse(t, "https://example.com"))

	assert.False(t, v.Valid)
	assert.Equal(t, ReasonRequestFailed, v.Reason)
}

func TestReasonPhrase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		code   int
		want   string
	}{
		{status: "404 Not Found", code: 404, want: "Not Found"},
		{status: "308 Permanent Redirect", code: 308, want: "Permanent Redirect"},
		{status: "200", code: 200, want: ""},
	}
	for _, tt := range tests {
		resp := &http.Response{Status: tt.status, StatusCode: tt.code}
		assert.Equal(t, tt.want, reasonPhrase(resp), tt.status)
	}
}
