// SPDX-License-Identifier: MPL-2.0

// Package packagecheck runs the package-level checks behind the pkgvet CLI.
//
// A Service opens a package (a .nupkg file or an extracted directory),
// resolves its automation scripts, optionally tokenizes them, validates the
// URLs in every manifest text field and every script body, and lists
// bundled binaries. Each text block is validated by its own call, so URL
// pacing applies within a block and never across blocks.
package packagecheck
