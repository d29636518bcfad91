// SPDX-License-Identifier: MPL-2.0

// Package urlcheck finds URLs in package text and checks that they resolve.
//
// A Checker performs one GET per URL with browser-like headers and maps the
// outcome to a Verdict. Several outcomes that look like failures are
// accepted on purpose:
//
//   - a "Permanent Redirect" reason phrase
//   - 403 responses served by Cloudflare, which usually mean a bot challenge
//   - 302 responses that could not be followed
//   - transport errors matching TransientPatterns, which point at missing
//     TLS ciphers or connection resets on the checking host rather than a
//     broken remote resource
//
// A Validator runs a Checker over every URL in a block of text, one request
// at a time with a fixed pause between requests, and reports false as soon
// as any URL fails. The pause keeps long release notes from tripping remote
// rate limits (HTTP 429), so checks inside one call must never run in
// parallel. Separate Validate calls do not share a pacer.
package urlcheck
