// SPDX-License-Identifier: MPL-2.0

// Package archive exposes the files of a package archive as a flat list of
// entries. Two providers are available: a zip reader for packed `.nupkg`
// files and an afero-backed reader for packages that were already extracted
// to a directory.
//
// Entries are read-only. Paths always use forward slashes and are relative to
// the package root, so callers can match on suffixes without caring which
// provider produced them.
package archive
