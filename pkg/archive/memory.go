// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"io"
	"strings"
)

type (
	// MemoryEntry is an Entry backed by an in-memory string. It is handy for
	// callers that already hold package content, and for tests.
	MemoryEntry struct {
		path    string
		content string
	}

	// MemoryProvider serves a fixed list of entries.
	MemoryProvider []Entry
)

// NewEntry creates an in-memory entry.
func NewEntry(path, content string) *MemoryEntry {
	return &MemoryEntry{path: normalizePath(path), content: content}
}

// Path returns the entry path.
func (e *MemoryEntry) Path() string { return e.path }

// Open returns a reader over the entry content.
func (e *MemoryEntry) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(e.content)), nil
}

// Entries returns the fixed entry list.
func (p MemoryProvider) Entries() ([]Entry, error) {
	return p, nil
}
