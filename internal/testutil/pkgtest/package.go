// SPDX-License-Identifier: MPL-2.0

package pkgtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"path"
	"sort"
	"testing"

	"github.com/pkgvet/pkgvet/pkg/archive"

	"github.com/spf13/afero"
)

type (
	// Package describes a test package.
	Package struct {
		ID       string
		Version  string
		Metadata map[string]string
		Files    map[string]string
	}

	// Option configures a test package.
	Option func(*Package)
)

// New creates a package with the given id, version 1.0.0 and no files.
//
// Usage:
//
//	pkg := pkgtest.New("demo",
//	    pkgtest.WithInstallScript(`. "$PSScriptRoot\helpers.ps1"`),
//	    pkgtest.WithFile("tools/helpers.ps1", "function Get-Thing {}"),
//	    pkgtest.WithMetadata("projectUrl", "https://example.com"),
//	)
func New(id string, opts ...Option) *Package {
	p := &Package{
		ID:       id,
		Version:  "1.0.0",
		Metadata: map[string]string{},
		Files:    map[string]string{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithVersion sets the package version.
func WithVersion(v string) Option {
	return func(p *Package) {
		p.Version = v
	}
}

// WithFile adds a file at the given archive path.
func WithFile(name, content string) Option {
	return func(p *Package) {
		p.Files[name] = content
	}
}

// WithInstallScript adds tools/chocolateyInstall.ps1.
func WithInstallScript(content string) Option {
	return WithFile("tools/chocolateyInstall.ps1", content)
}

// WithUninstallScript adds tools/chocolateyUninstall.ps1.
func WithUninstallScript(content string) Option {
	return WithFile("tools/chocolateyUninstall.ps1", content)
}

// WithBeforeModifyScript adds tools/chocolateyBeforeModify.ps1.
func WithBeforeModifyScript(content string) Option {
	return WithFile("tools/chocolateyBeforeModify.ps1", content)
}

// WithMetadata sets a manifest metadata element such as "projectUrl" or
// "releaseNotes".
func WithMetadata(name, value string) Option {
	return func(p *Package) {
		p.Metadata[name] = value
	}
}

// NuspecName returns the manifest file name.
func (p *Package) NuspecName() string {
	return p.ID + ".nuspec"
}

// Nuspec renders the package manifest.
func (p *Package) Nuspec() string {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<package xmlns="http://schemas.microsoft.com/packaging/2015/06/nuspec.xsd">` + "\n")
	buf.WriteString("  <metadata>\n")
	writeElement(&buf, "id", p.ID)
	writeElement(&buf, "version", p.Version)
	for _, name := range sortedKeys(p.Metadata) {
		writeElement(&buf, name, p.Metadata[name])
	}
	buf.WriteString("  </metadata>\n</package>\n")
	return buf.String()
}

// Entries returns the package content as in-memory archive entries,
// manifest first and files in path order.
func (p *Package) Entries() []archive.Entry {
	entries := []archive.Entry{archive.NewEntry(p.NuspecName(), p.Nuspec())}
	for _, name := range sortedKeys(p.Files) {
		entries = append(entries, archive.NewEntry(name, p.Files[name]))
	}
	return entries
}

// Zip renders the package as .nupkg bytes, including the packaging parts
// that archive.ZipProvider skips.
func (p *Package) Zip(t testing.TB) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="utf-8"?><Types/>`)
	write("_rels/.rels", `<?xml version="1.0" encoding="utf-8"?><Relationships/>`)
	write(p.NuspecName(), p.Nuspec())
	for _, name := range sortedKeys(p.Files) {
		write(name, p.Files[name])
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return buf.Bytes()
}

// WriteDir writes the package as an extracted directory under root.
func (p *Package) WriteDir(t testing.TB, fs afero.Fs, root string) {
	t.Helper()

	files := map[string]string{p.NuspecName(): p.Nuspec()}
	for name, content := range p.Files {
		files[name] = content
	}
	for _, name := range sortedKeys(files) {
		full := path.Join(root, name)
		if err := fs.MkdirAll(path.Dir(full), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", path.Dir(full), err)
		}
		if err := afero.WriteFile(fs, full, []byte(files[name]), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", full, err)
		}
	}
}

func writeElement(buf *bytes.Buffer, name, value string) {
	buf.WriteString("    <" + name + ">")
	_ = xml.EscapeText(buf, []byte(value))
	buf.WriteString("</" + name + ">\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
