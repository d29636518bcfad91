// SPDX-License-Identifier: MPL-2.0

// Package nuspec reads the package manifest (.nuspec) bundled at the root of
// a package archive and exposes its free-text fields for URL validation.
package nuspec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkgvet/pkgvet/pkg/archive"
)

// ErrManifestNotFound is returned when an archive has no .nuspec entry.
var ErrManifestNotFound = errors.New("nuspec manifest not found")

type (
	// Manifest is the subset of nuspec metadata relevant to validation.
	Manifest struct {
		// Path is the archive path the manifest was read from.
		Path     string   `xml:"-"`
		Metadata Metadata `xml:"metadata"`
	}

	// Metadata mirrors the <metadata> element.
	Metadata struct {
		ID               string `xml:"id"`
		Version          string `xml:"version"`
		Title            string `xml:"title"`
		Authors          string `xml:"authors"`
		Owners           string `xml:"owners"`
		Summary          string `xml:"summary"`
		Description      string `xml:"description"`
		ReleaseNotes     string `xml:"releaseNotes"`
		Tags             string `xml:"tags"`
		ProjectURL       string `xml:"projectUrl"`
		ProjectSourceURL string `xml:"projectSourceUrl"`
		PackageSourceURL string `xml:"packageSourceUrl"`
		DocsURL          string `xml:"docsUrl"`
		BugTrackerURL    string `xml:"bugTrackerUrl"`
		MailingListURL   string `xml:"mailingListUrl"`
		WikiURL          string `xml:"wikiUrl"`
		LicenseURL       string `xml:"licenseUrl"`
		IconURL          string `xml:"iconUrl"`
	}

	// Field is a named text block from the manifest.
	Field struct {
		Name  string `json:"name" toml:"name" yaml:"name"`
		Value string `json:"value" toml:"value" yaml:"value"`
	}
)

// Parse decodes nuspec XML that is already UTF-8. The declared encoding is
// ignored because archive.ReadText has decoded the bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse nuspec: %w", err)
	}
	return &m, nil
}

// Find locates the manifest among archive entries. Only a .nuspec at the
// package root counts, matching how packages are laid out by the packer.
func Find(entries []archive.Entry) (archive.Entry, error) {
	for _, e := range archive.SortByPath(entries) {
		p := strings.ToLower(e.Path())
		if strings.HasSuffix(p, ".nuspec") && !strings.Contains(p, "/") {
			return e, nil
		}
	}
	return nil, ErrManifestNotFound
}

// Load finds and parses the manifest in one step.
func Load(entries []archive.Entry) (*Manifest, error) {
	entry, err := Find(entries)
	if err != nil {
		return nil, err
	}
	text, err := archive.ReadText(entry)
	if err != nil {
		return nil, err
	}
	m, err := Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Path(), err)
	}
	m.Path = entry.Path()
	return m, nil
}

// Fields returns the non-empty text fields that may contain URLs, in manifest
// order. Values are trimmed.
func (m *Manifest) Fields() []Field {
	md := m.Metadata
	all := []Field{
		{Name: "summary", Value: md.Summary},
		{Name: "description", Value: md.Description},
		{Name: "releaseNotes", Value: md.ReleaseNotes},
		{Name: "projectUrl", Value: md.ProjectURL},
		{Name: "projectSourceUrl", Value: md.ProjectSourceURL},
		{Name: "packageSourceUrl", Value: md.PackageSourceURL},
		{Name: "docsUrl", Value: md.DocsURL},
		{Name: "bugTrackerUrl", Value: md.BugTrackerURL},
		{Name: "mailingListUrl", Value: md.MailingListURL},
		{Name: "wikiUrl", Value: md.WikiURL},
		{Name: "licenseUrl", Value: md.LicenseURL},
		{Name: "iconUrl", Value: md.IconURL},
	}

	fields := make([]Field, 0, len(all))
	for _, f := range all {
		f.Value = strings.TrimSpace(f.Value)
		if f.Value != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
