// SPDX-License-Identifier: MPL-2.0

// Package pkgtest builds package archives for tests.
//
// A Package starts with a minimal manifest and no files; options add
// automation scripts, payload files and manifest fields. The result can be
// rendered as .nupkg zip bytes, written into an afero filesystem as an
// extracted package, or used directly as a list of archive entries.
package pkgtest
