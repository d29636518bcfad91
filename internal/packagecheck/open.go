// SPDX-License-Identifier: MPL-2.0

package packagecheck

import (
	"errors"
	"fmt"

	"github.com/pkgvet/pkgvet/pkg/archive"

	"github.com/spf13/afero"
)

// ErrOpenPackage is the sentinel wrapped by OpenError.
var ErrOpenPackage = errors.New("open package")

// OpenError reports a package that could not be opened or listed.
type OpenError struct {
	Target string
	Err    error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open package %s: %v", e.Target, e.Err)
}

// Unwrap returns ErrOpenPackage and the underlying cause.
func (e *OpenError) Unwrap() []error {
	return []error{ErrOpenPackage, e.Err}
}

// Open returns the entries of the package at target. Directories are read
// as extracted packages; any other file is read as a zip archive.
func Open(fs afero.Fs, target string) ([]archive.Entry, error) {
	info, err := fs.Stat(target)
	if err != nil {
		return nil, &OpenError{Target: target, Err: err}
	}

	var provider archive.Provider
	if info.IsDir() {
		provider = archive.NewFSProvider(fs, target)
	} else {
		data, err := afero.ReadFile(fs, target)
		if err != nil {
			return nil, &OpenError{Target: target, Err: err}
		}
		zp, err := archive.NewZipProvider(data)
		if err != nil {
			return nil, &OpenError{Target: target, Err: err}
		}
		provider = zp
	}

	entries, err := provider.Entries()
	if err != nil {
		return nil, &OpenError{Target: target, Err: err}
	}
	return archive.SortByPath(entries), nil
}
