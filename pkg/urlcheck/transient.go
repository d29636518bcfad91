// SPDX-License-Identifier: MPL-2.0

package urlcheck

import (
	"context"
	"errors"
	"strings"
)

// TransientPatterns are lower-case message fragments of errors caused by the
// checking host rather than the remote resource: connections reset during
// TLS negotiation and cipher or protocol mismatches.
var TransientPatterns = []string{
	// Windows socket and .NET-style transport messages.
	"unable to read data from the transport connection: an existing connection was forcibly closed by the remote host",
	"an existing connection was forcibly closed by the remote host",
	"the request was aborted: could not create ssl/tls secure channel",
	"wsarecv: an existing connection was forcibly closed",
	// Go crypto/tls and syscall messages.
	"connection reset by peer",
	"tls: handshake failure",
	"tls: no cipher suite supported by both client and server",
	"tls: no supported versions satisfy mintls and maxtls",
	"tls: protocol version not supported",
	"tls: insufficient security level",
}

// MatchesTransientPattern reports whether message contains any of patterns.
// Matching is case-insensitive and ignores surrounding whitespace.
func MatchesTransientPattern(message string, patterns []string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return false
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(msg, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// ErrorChainMessages returns the message of err and of every error it wraps,
// outermost first. Both single (Unwrap() error) and joined
// (Unwrap() []error) wrapping are followed.
func ErrorChainMessages(err error) []string {
	var msgs []string
	queue := []error{err}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e == nil {
			continue
		}
		msgs = append(msgs, e.Error())

		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		}
	}
	return msgs
}

// IsTransientError reports whether any error in the chain of err matches
// TransientPatterns. Context cancellation and deadlines are never transient.
func IsTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	for _, msg := range ErrorChainMessages(err) {
		if MatchesTransientPattern(msg, TransientPatterns) {
			return true
		}
	}
	return false
}
