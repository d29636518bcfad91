// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for the pkgvet CLI.
//
// An ActionableError names the failed operation, the package, file or URL it
// concerned, and what the user can do about it. Known failure classes also
// carry an Id that links them to a Markdown help page rendered with glamour.
package issue
