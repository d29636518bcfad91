// SPDX-License-Identifier: MPL-2.0

package packagecheck

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pkgvet/pkgvet/pkg/archive"
	"github.com/pkgvet/pkgvet/pkg/automation"
	"github.com/pkgvet/pkgvet/pkg/nuspec"
	"github.com/pkgvet/pkgvet/pkg/scripttoken"
	"github.com/pkgvet/pkgvet/pkg/urlcheck"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

const (
	// SourceMetadata marks URL reports for manifest fields.
	SourceMetadata SourceKind = "metadata"
	// SourceScript marks URL reports for automation scripts.
	SourceScript SourceKind = "script"
)

type (
	// SourceKind says where a validated text block came from.
	SourceKind string

	// Service runs package checks.
	Service struct {
		fs         afero.Fs
		checker    *urlcheck.Checker
		validation []urlcheck.ValidatorOption
		tokenizer  scripttoken.Tokenizer
		logger     *log.Logger
	}

	// Option configures a Service.
	Option func(*Service)

	// Request selects what a Run does.
	Request struct {
		// Target is a .nupkg path or an extracted package directory.
		Target string
		// Tokenize adds token sequences for every resolved script.
		Tokenize bool
		// CheckURLs validates URLs in manifest fields and scripts.
		CheckURLs bool
	}

	// Result is the outcome of one Run.
	Result struct {
		Target   string               `json:"target" toml:"target" yaml:"target"`
		ID       string               `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
		Version  string               `json:"version,omitempty" toml:"version,omitempty" yaml:"version,omitempty"`
		Manifest string               `json:"manifest,omitempty" toml:"manifest,omitempty" yaml:"manifest,omitempty"`
		Scripts  []ScriptSummary      `json:"scripts" toml:"scripts" yaml:"scripts"`
		Tokens   scripttoken.TokenMap `json:"tokens,omitempty" toml:"tokens,omitempty" yaml:"tokens,omitempty"`
		URLs     []URLReport          `json:"urls,omitempty" toml:"urls,omitempty" yaml:"urls,omitempty"`
		Binaries []string             `json:"binaries,omitempty" toml:"binaries,omitempty" yaml:"binaries,omitempty"`
		Valid    bool                 `json:"valid" toml:"valid" yaml:"valid"`
	}

	// ScriptSummary describes one resolved automation script.
	ScriptSummary struct {
		Path         string `json:"path" toml:"path" yaml:"path"`
		Entrypoint   bool   `json:"entrypoint" toml:"entrypoint" yaml:"entrypoint"`
		ReferencedBy string `json:"referenced_by,omitempty" toml:"referenced_by,omitempty" yaml:"referenced_by,omitempty"`
		Lines        int    `json:"lines" toml:"lines" yaml:"lines"`
	}

	// URLReport is the URL validation outcome for one text block.
	URLReport struct {
		Kind   SourceKind      `json:"kind" toml:"kind" yaml:"kind"`
		Source string          `json:"source" toml:"source" yaml:"source"`
		Report urlcheck.Report `json:"report" toml:"report" yaml:"report"`
		// Error is the extraction or cancellation error that cut the
		// block's validation short.
		Error string `json:"error,omitempty" toml:"error,omitempty" yaml:"error,omitempty"`
	}
)

// WithFs sets the filesystem packages are read from. Defaults to the OS.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithChecker sets the URL checker.
func WithChecker(c *urlcheck.Checker) Option {
	return func(s *Service) {
		s.checker = c
	}
}

// WithValidatorOptions configures the validator built for each Run.
func WithValidatorOptions(opts ...urlcheck.ValidatorOption) Option {
	return func(s *Service) {
		s.validation = append(s.validation, opts...)
	}
}

// WithTokenizer replaces the default shell tokenizer.
func WithTokenizer(t scripttoken.Tokenizer) Option {
	return func(s *Service) {
		s.tokenizer = t
	}
}

// WithLogger sets the logger shared with the script resolver.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{
		fs:     afero.NewOsFs(),
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "packagecheck"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.checker == nil {
		s.checker = urlcheck.NewChecker(urlcheck.WithLogger(s.logger))
	}
	if s.tokenizer == nil {
		s.tokenizer = scripttoken.NewShellTokenizer()
	}
	return s
}

// Run checks the package named by req.Target. Only open, manifest parse and
// tokenizer failures are returned as errors; URL failures are reported in
// the Result.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	entries, err := Open(s.fs, req.Target)
	if err != nil {
		return nil, err
	}

	result := &Result{Target: req.Target, Valid: true}

	manifest, err := nuspec.Load(entries)
	switch {
	case errors.Is(err, nuspec.ErrManifestNotFound):
		s.logger.Warn("Package has no manifest; metadata fields are not checked", "package", req.Target)
	case err != nil:
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	default:
		result.ID = manifest.Metadata.ID
		result.Version = manifest.Metadata.Version
		result.Manifest = manifest.Path
	}

	scripts := automation.Resolve(entries, automation.WithLogger(s.logger))
	for _, path := range scripts.Paths() {
		sc := scripts[path]
		result.Scripts = append(result.Scripts, ScriptSummary{
			Path:         sc.Path,
			Entrypoint:   sc.Entrypoint,
			ReferencedBy: sc.ReferencedBy,
			Lines:        countLines(sc.Content),
		})
	}

	if req.Tokenize {
		tokens, err := scripttoken.TokenizeScripts(s.tokenizer, scripts)
		if err != nil {
			return nil, err
		}
		result.Tokens = tokens
	}

	if req.CheckURLs {
		// One pacer for the whole package so blocks do not reset the pause.
		validator := urlcheck.NewValidator(s.checker, s.validation...)
		pacer := validator.NewPacer()
		if manifest != nil {
			for _, f := range manifest.Fields() {
				result.addReport(SourceMetadata, f.Name, validator.ValidatePaced(ctx, f.Value, pacer))
			}
		}
		for _, path := range scripts.Paths() {
			result.addReport(SourceScript, path, validator.ValidatePaced(ctx, scripts[path].Content, pacer))
		}
	}

	result.Binaries = archive.Binaries(entries)
	if len(result.Binaries) > 0 {
		s.logger.Info("Package bundles binaries", "package", req.Target, "count", len(result.Binaries))
	}

	return result, nil
}

// addReport records a report for a block that contained URLs or failed to
// scan. Blocks without URLs are omitted.
func (r *Result) addReport(kind SourceKind, source string, report urlcheck.Report) {
	if len(report.Verdicts) == 0 && report.Err == nil {
		return
	}
	ur := URLReport{Kind: kind, Source: source, Report: report}
	if report.Err != nil {
		ur.Error = report.Err.Error()
	}
	r.URLs = append(r.URLs, ur)
	if !report.Valid {
		r.Valid = false
	}
}

// FailedURLs returns every invalid verdict across all blocks.
func (r *Result) FailedURLs() []urlcheck.Verdict {
	var failed []urlcheck.Verdict
	for _, u := range r.URLs {
		failed = append(failed, u.Report.Failed()...)
	}
	return failed
}

// HasBinaries reports whether the package bundles binaries.
func (r *Result) HasBinaries() bool {
	return len(r.Binaries) > 0
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && i < len(s)-1 {
			n++
		}
	}
	return n
}
