// SPDX-License-Identifier: MPL-2.0

package urlcheck

import (
	"context"
	"net/url"
	"time"
)

type (
	// Validator checks every URL in a block of text.
	Validator struct {
		checker  *Checker
		interval time.Duration
		clock    Clock
	}

	// ValidatorOption configures a Validator during construction.
	ValidatorOption func(*Validator)

	// Report is the outcome of one Validate call.
	Report struct {
		// Valid is false once any verdict was invalid, or when the text
		// could not be scanned.
		Valid bool `json:"valid" toml:"valid" yaml:"valid"`
		// Verdicts are in extraction order.
		Verdicts []Verdict `json:"verdicts" toml:"verdicts" yaml:"verdicts"`
		// Err is an extraction error or the context error that cut the run
		// short.
		Err error `json:"-" toml:"-" yaml:"-"`
	}
)

// WithInterval overrides DefaultRequestInterval.
func WithInterval(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		v.interval = d
	}
}

// WithClock sets the time source used for pacing.
func WithClock(c Clock) ValidatorOption {
	return func(v *Validator) {
		v.clock = c
	}
}

// NewValidator creates a Validator around c. A nil Checker gets the
// defaults of NewChecker.
func NewValidator(c *Checker, opts ...ValidatorOption) *Validator {
	if c == nil {
		c = NewChecker()
	}
	v := &Validator{
		checker:  c,
		interval: DefaultRequestInterval,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateAll reports whether every URL in text passes the check.
func (v *Validator) ValidateAll(ctx context.Context, text string) bool {
	return v.Validate(ctx, text).Valid
}

// Validate checks the URLs found in text one at a time, in order of
// appearance, pausing between consecutive checks. All candidates are parsed
// before the first request; a candidate that cannot be parsed fails the
// whole call without any request being sent. A single invalid verdict makes
// the report invalid even if later URLs pass.
func (v *Validator) Validate(ctx context.Context, text string) Report {
	return v.ValidatePaced(ctx, text, v.NewPacer())
}

// NewPacer returns a Pacer using the Validator's interval and clock. Sharing
// it across ValidatePaced calls spaces requests over several text blocks.
func (v *Validator) NewPacer() *Pacer {
	return NewPacer(v.interval, v.clock)
}

// ValidatePaced is Validate with a caller-owned Pacer.
func (v *Validator) ValidatePaced(ctx context.Context, text string, pacer *Pacer) Report {
	logger := v.checker.logger

	candidates := ExtractURLs(text)
	urls := make([]*url.URL, 0, len(candidates))
	for _, c := range candidates {
		u, err := ParseCandidate(c)
		if err != nil {
			logger.Error("Error extracting URLs from text", "err", err)
			return Report{Err: err}
		}
		urls = append(urls, u)
	}

	report := Report{Valid: true, Verdicts: make([]Verdict, 0, len(urls))}
	for _, u := range urls {
		if err := pacer.Wait(ctx); err != nil {
			report.Valid = false
			report.Err = err
			return report
		}

		verdict := v.checker.Check(ctx, u)
		pacer.Done()

		report.Verdicts = append(report.Verdicts, verdict)
		if !verdict.Valid {
			report.Valid = false
		}
	}
	return report
}

// Failed returns the invalid verdicts of r.
func (r Report) Failed() []Verdict {
	var failed []Verdict
	for _, vd := range r.Verdicts {
		if !vd.Valid {
			failed = append(failed, vd)
		}
	}
	return failed
}

// ValidateAllURLs checks every URL in text with a fresh Validator.
func ValidateAllURLs(ctx context.Context, text string, proxy ProxyConfig) bool {
	return NewValidator(NewChecker(WithProxy(proxy))).ValidateAll(ctx, text)
}
