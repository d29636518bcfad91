// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

type (
	// FSProvider reads entries from an extracted package directory.
	FSProvider struct {
		fs   afero.Fs
		root string
	}

	fsEntry struct {
		fs       afero.Fs
		fullPath string
		path     string
	}
)

// NewFSProvider creates a provider rooted at root on the given filesystem.
// Pass afero.NewOsFs() for real directories.
func NewFSProvider(fsys afero.Fs, root string) *FSProvider {
	return &FSProvider{fs: fsys, root: root}
}

// Entries walks the root directory and returns every regular file.
func (p *FSProvider) Entries() ([]Entry, error) {
	info, err := p.fs.Stat(p.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat package directory %s: %w", p.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("package path %s is not a directory", p.root)
	}

	var entries []Entry
	walkErr := afero.Walk(p.fs, p.root, func(path string, fi fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(p.root, path)
		if relErr != nil {
			return relErr
		}
		entries = append(entries, &fsEntry{
			fs:       p.fs,
			fullPath: path,
			path:     normalizePath(filepath.ToSlash(rel)),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to list package directory %s: %w", p.root, walkErr)
	}
	return entries, nil
}

func (e *fsEntry) Path() string { return e.path }

func (e *fsEntry) Open() (io.ReadCloser, error) {
	return e.fs.Open(e.fullPath)
}
