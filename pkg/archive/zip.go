// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// nupkg packaging artefacts that are never package content.
var zipMetadataPrefixes = []string{"_rels/", "package/services/metadata/", "[content_types].xml"}

type (
	// ZipProvider reads entries from a zip-based package such as a .nupkg.
	ZipProvider struct {
		reader *zip.Reader
		closer io.Closer
	}

	zipEntry struct {
		file *zip.File
		path string
	}
)

// OpenZip opens the package at path. The caller must Close the provider.
func OpenZip(path string) (*ZipProvider, error) {
	// Entries are only read, never extracted, so insecure names are tolerated.
	rc, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to open package %s: %w", path, err)
	}
	return &ZipProvider{reader: &rc.Reader, closer: rc}, nil
}

// NewZipProvider reads a package from an in-memory zip payload.
func NewZipProvider(data []byte) (*ZipProvider, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to read package: %w", err)
	}
	return &ZipProvider{reader: r}, nil
}

// Entries returns every file entry. Directories and OPC packaging metadata
// are skipped.
func (p *ZipProvider) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(p.reader.File))
	for _, f := range p.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path := normalizePath(f.Name)
		if isZipMetadata(path) {
			continue
		}
		entries = append(entries, &zipEntry{file: f, path: path})
	}
	return entries, nil
}

// Close releases the underlying file, if any.
func (p *ZipProvider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func (e *zipEntry) Path() string { return e.path }

func (e *zipEntry) Open() (io.ReadCloser, error) {
	return e.file.Open()
}

func isZipMetadata(path string) bool {
	lower := strings.ToLower(path)
	for _, prefix := range zipMetadataPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
