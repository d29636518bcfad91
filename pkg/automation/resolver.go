// SPDX-License-Identifier: MPL-2.0

package automation

import (
	"os"
	"regexp"
	"strings"

	"github.com/pkgvet/pkgvet/pkg/archive"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
)

var (
	// ScriptSuffixes are the file suffixes of PowerShell scripts and modules.
	ScriptSuffixes = []string{".ps1", ".psm1"}

	// EntrypointNames are the automation scripts the package manager invokes directly.
	EntrypointNames = []string{
		"chocolateyinstall.ps1",
		"chocolateybeforemodify.ps1",
		"chocolateyuninstall.ps1",
	}

	// scriptReferencePattern finds quoted or unquoted tokens that end in a
	// script suffix. Group 1 holds the reference.
	scriptReferencePattern = regexp.MustCompile(`(?im)['"]?(\S+\.psm?1)`)
)

type (
	// Script is one automation script and its content.
	Script struct {
		// Path is the archive path of the script.
		Path string
		// Content is the full script text.
		Content string
		// Entrypoint is true for the three directly invoked scripts.
		Entrypoint bool
		// ReferencedBy is the path of the entrypoint that pulled the script
		// in. Empty for entrypoints.
		ReferencedBy string
	}

	// ScriptMap holds automation scripts keyed by archive path.
	ScriptMap map[string]Script

	// Option configures Resolve.
	Option func(*resolver)

	resolver struct {
		logger *log.Logger
	}
)

// WithLogger overrides the logger used for recoverable scan failures.
func WithLogger(l *log.Logger) Option {
	return func(r *resolver) {
		r.logger = l
	}
}

// Resolve returns the entrypoint scripts of a package together with every
// script they reference by file name. It never fails: unreadable entries are
// logged and skipped. An archive without entrypoints yields an empty map.
func Resolve(entries []archive.Entry, opts ...Option) ScriptMap {
	r := &resolver{
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "automation"}),
	}
	for _, opt := range opts {
		opt(r)
	}

	scripts := scriptEntries(entries)
	result := make(ScriptMap)

	for _, entry := range scripts {
		if !IsEntrypoint(entry.Path()) {
			continue
		}

		content, err := archive.ReadText(entry)
		if err != nil {
			r.logger.Warn("Skipping unreadable automation script", "path", entry.Path(), "err", err)
			continue
		}

		// A helper that is also an entrypoint may already be present.
		if existing, ok := result[entry.Path()]; ok {
			existing.Entrypoint = true
			existing.ReferencedBy = ""
			result[entry.Path()] = existing
		} else {
			result[entry.Path()] = Script{Path: entry.Path(), Content: content, Entrypoint: true}
		}

		r.addReferences(result, scripts, entry.Path(), content)
	}

	return result
}

// addReferences scans an entrypoint for referenced scripts. Every referenced
// script is stored under its own path so that several references from the
// same entrypoint never overwrite one another.
func (r *resolver) addReferences(result ScriptMap, scripts []archive.Entry, from, content string) {
	for _, ref := range FindReferences(content) {
		candidate := findBySuffix(scripts, ref)
		if candidate == nil {
			r.logger.Debug("Referenced script not found in package", "entrypoint", from, "reference", ref)
			continue
		}
		if _, ok := result[candidate.Path()]; ok {
			continue
		}

		text, err := archive.ReadText(candidate)
		if err != nil {
			r.logger.Warn("Error when searching for included powershell scripts", "entrypoint", from, "err", err)
			continue
		}
		result[candidate.Path()] = Script{Path: candidate.Path(), Content: text, ReferencedBy: from}
	}
}

// FindReferences returns the lower-cased file names of all scripts the text
// mentions, in order of first appearance and without duplicates.
func FindReferences(text string) []string {
	var refs []string
	for _, m := range scriptReferencePattern.FindAllStringSubmatch(text, -1) {
		name := referenceFileName(m[1])
		if slices.Contains(ScriptSuffixes, name) || slices.Contains(refs, name) {
			continue
		}
		refs = append(refs, name)
	}
	return refs
}

// IsScript reports whether path has a PowerShell script suffix.
func IsScript(path string) bool {
	lower := strings.ToLower(path)
	return slices.ContainsFunc(ScriptSuffixes, func(s string) bool {
		return strings.HasSuffix(lower, s)
	})
}

// IsEntrypoint reports whether path names one of the automation entrypoints.
func IsEntrypoint(path string) bool {
	lower := strings.ToLower(path)
	return slices.ContainsFunc(EntrypointNames, func(s string) bool {
		return strings.HasSuffix(lower, s)
	})
}

// Paths returns the script paths in sorted order.
func (m ScriptMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Entrypoints returns the entrypoint scripts sorted by path.
func (m ScriptMap) Entrypoints() []Script {
	return m.filter(func(s Script) bool { return s.Entrypoint })
}

// Referenced returns the scripts pulled in through references, sorted by path.
func (m ScriptMap) Referenced() []Script {
	return m.filter(func(s Script) bool { return !s.Entrypoint })
}

func (m ScriptMap) filter(keep func(Script) bool) []Script {
	var out []Script
	for _, p := range m.Paths() {
		if s := m[p]; keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// scriptEntries keeps the script entries, sorted by path for deterministic
// resolution.
func scriptEntries(entries []archive.Entry) []archive.Entry {
	var scripts []archive.Entry
	for _, e := range archive.SortByPath(entries) {
		if IsScript(e.Path()) {
			scripts = append(scripts, e)
		}
	}
	return scripts
}

// findBySuffix returns the first script whose lower-cased path ends with name.
func findBySuffix(scripts []archive.Entry, name string) archive.Entry {
	for _, s := range scripts {
		if strings.HasSuffix(strings.ToLower(s.Path()), name) {
			return s
		}
	}
	return nil
}

// referenceFileName reduces a raw reference like `"$PSScriptRoot\helpers.ps1`
// to `helpers.ps1`.
func referenceFileName(ref string) string {
	ref = strings.ReplaceAll(ref, "\\", "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	ref = strings.TrimLeft(ref, `'"(`)
	return strings.ToLower(ref)
}
