// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxEntrySize caps how much of a single entry ReadText will load (16 MB).
const MaxEntrySize = 16 << 20

var (
	// ErrEntryTooLarge is returned by ReadText when an entry exceeds MaxEntrySize.
	ErrEntryTooLarge = errors.New("archive entry too large")

	byteOrderMarks = [][]byte{
		{0xEF, 0xBB, 0xBF}, // UTF-8
		{0xFF, 0xFE},       // UTF-16LE
		{0xFE, 0xFF},       // UTF-16BE
	}

	// binaryExtensions are the file suffixes treated as bundled binaries.
	binaryExtensions = []string{
		".exe", ".msi", ".msu", ".msp", ".dll", ".7z", ".zip", ".gz",
		".tar", ".rar", ".sfx", ".iso", ".dmg", ".so", ".jar",
	}
)

type (
	// Entry is a single file inside a package archive.
	Entry interface {
		// Path is the slash-separated path relative to the package root.
		Path() string
		// Open returns a fresh reader over the entry contents.
		Open() (io.ReadCloser, error)
	}

	// Provider lists the entries of a package.
	Provider interface {
		Entries() ([]Entry, error)
	}

	// EntryReadError describes a failure to read one entry.
	EntryReadError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *EntryReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EntryReadError) Unwrap() error {
	return e.Err
}

// ReadText reads the whole entry and returns it as UTF-8. Entries starting
// with a UTF-8 or UTF-16 byte order mark are decoded accordingly and the mark
// is dropped. Entries without a mark that are not valid UTF-8 are decoded as
// Windows-1252, the usual encoding of scripts saved by Windows editors.
func ReadText(e Entry) (text string, err error) {
	rc, err := e.Open()
	if err != nil {
		return "", &EntryReadError{Path: e.Path(), Err: err}
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = &EntryReadError{Path: e.Path(), Err: closeErr}
		}
	}()

	data, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
	if err != nil {
		return "", &EntryReadError{Path: e.Path(), Err: err}
	}
	if len(data) > MaxEntrySize {
		return "", &EntryReadError{Path: e.Path(), Err: ErrEntryTooLarge}
	}

	text, err = decodeText(data)
	if err != nil {
		return "", &EntryReadError{Path: e.Path(), Err: err}
	}
	return text, nil
}

func decodeText(data []byte) (string, error) {
	var decoder transform.Transformer
	switch {
	case hasByteOrderMark(data):
		decoder = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case utf8.Valid(data):
		return string(data), nil
	default:
		decoder = charmap.Windows1252.NewDecoder()
	}
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func hasByteOrderMark(data []byte) bool {
	return slices.ContainsFunc(byteOrderMarks, func(bom []byte) bool {
		return bytes.HasPrefix(data, bom)
	})
}

// HasBinaries reports whether any entry looks like a bundled binary or
// compressed payload.
func HasBinaries(entries []Entry) bool {
	return len(Binaries(entries)) > 0
}

// Binaries returns the paths of all entries that look like bundled binaries.
func Binaries(entries []Entry) []string {
	var paths []string
	for _, e := range entries {
		lower := strings.ToLower(e.Path())
		if slices.ContainsFunc(binaryExtensions, func(ext string) bool {
			return strings.HasSuffix(lower, ext)
		}) {
			paths = append(paths, e.Path())
		}
	}
	return paths
}

// SortByPath orders entries by path so that callers iterate deterministically
// regardless of the provider's native order.
func SortByPath(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return strings.Compare(a.Path(), b.Path())
	})
	return sorted
}

// normalizePath converts a provider path to the canonical slash form.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "/")
}
