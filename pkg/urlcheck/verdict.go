// SPDX-License-Identifier: MPL-2.0

package urlcheck

const (
	// ReasonNoURL means there was nothing to check.
	ReasonNoURL Reason = "no_url"
	// ReasonMailto means a mailto link was rejected without a request.
	ReasonMailto Reason = "mailto"
	// ReasonUnsupportedScheme means the scheme is neither http nor https.
	ReasonUnsupportedScheme Reason = "unsupported_scheme"
	// ReasonOK means the server answered 200.
	ReasonOK Reason = "ok"
	// ReasonPermanentRedirect means the response carried the
	// "Permanent Redirect" reason phrase.
	ReasonPermanentRedirect Reason = "permanent_redirect"
	// ReasonCloudflareChallenge means a 403 came from Cloudflare.
	ReasonCloudflareChallenge Reason = "cloudflare_challenge"
	// ReasonFound means the server answered 302.
	ReasonFound Reason = "found"
	// ReasonUnexpectedStatus means any other status code.
	ReasonUnexpectedStatus Reason = "unexpected_status"
	// ReasonTransientNetwork means the request failed in a way attributed
	// to the local environment.
	ReasonTransientNetwork Reason = "transient_network"
	// ReasonRequestFailed means the request failed for any other reason.
	ReasonRequestFailed Reason = "request_failed"
)

type (
	// Reason explains a Verdict.
	Reason string

	// Verdict is the outcome of one reachability check.
	Verdict struct {
		URL        string `json:"url" toml:"url" yaml:"url"`
		Valid      bool   `json:"valid" toml:"valid" yaml:"valid"`
		Reason     Reason `json:"reason" toml:"reason" yaml:"reason"`
		StatusCode int    `json:"status_code,omitempty" toml:"status_code,omitempty" yaml:"status_code,omitempty"`
		Err        error  `json:"-" toml:"-" yaml:"-"`
	}

	// ProxyConfig routes checks through an HTTP proxy. An empty Address
	// means a direct connection. Credentials are only sent when both
	// Username and Password are set.
	ProxyConfig struct {
		Address  string
		Username string
		Password string
	}
)

// String returns the reason code.
func (r Reason) String() string {
	return string(r)
}

// Enabled reports whether a proxy address is configured.
func (p ProxyConfig) Enabled() bool {
	return p.Address != ""
}

// Authenticated reports whether proxy credentials should be attached.
func (p ProxyConfig) Authenticated() bool {
	return p.Enabled() && p.Username != "" && p.Password != ""
}

// ErrorText returns the verdict error message, or "" when there is none.
func (v Verdict) ErrorText() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}
