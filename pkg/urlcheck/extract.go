// SPDX-License-Identifier: MPL-2.0

package urlcheck

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// urlPattern matches http(s) and www. tokens up to the last word character
// before whitespace. Word characters include Unicode letters and digits, so
// trailing non-ASCII letters stay part of the URL. Group 1 holds the candidate.
var urlPattern = regexp.MustCompile(`(?im)\b((?:https?://|www\.)\S*[\p{L}\p{N}_])`)

// ErrExtraction is the sentinel wrapped by ExtractionError.
var ErrExtraction = errors.New("url extraction failed")

// ExtractionError reports a candidate that could not be turned into a URL.
type ExtractionError struct {
	Candidate string
	Err       error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("invalid url candidate %q: %v", e.Candidate, e.Err)
}

// Unwrap exposes ErrExtraction and the parse error.
func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

// ExtractURLs returns every URL candidate in text in order of appearance.
// Duplicates are kept.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllStringSubmatch(text, -1)
	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, m[1])
	}
	return candidates
}

// ParseCandidate builds the URL a candidate refers to. Candidates starting
// with "www." have no scheme and are checked over plain http. Only http and
// https URLs must name a host; other schemes are left for the checker to
// classify.
func ParseCandidate(candidate string) (*url.URL, error) {
	raw := candidate
	if strings.HasPrefix(strings.ToLower(raw), "www.") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ExtractionError{Candidate: candidate, Err: err}
	}
	if isHTTP(u) && u.Host == "" {
		return nil, &ExtractionError{Candidate: candidate, Err: errors.New("missing host")}
	}
	return u, nil
}

func isHTTP(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
