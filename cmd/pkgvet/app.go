// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkgvet/pkgvet/internal/config"
	"github.com/pkgvet/pkgvet/internal/issue"
	"github.com/pkgvet/pkgvet/internal/packagecheck"
	"github.com/pkgvet/pkgvet/pkg/urlcheck"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App reference
	// and builds checkers and services through it.
	App struct {
		Config ConfigProvider
		Fs     afero.Fs
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Fs     afero.Fs
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlags holds the persistent flag values shared by every command.
	rootFlags struct {
		verbose       bool
		configPath    string
		output        string
		proxyAddress  string
		proxyUsername string
		proxyPassword string
		timeout       time.Duration
		interval      time.Duration
	}

	// settings is the effective configuration of one command invocation:
	// the loaded config with explicitly set flags applied on top.
	settings struct {
		cfg     *config.Config
		output  config.OutputFormat
		verbose bool
		level   log.Level
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) (*App, error) {
	app := &App{
		Config: deps.Config,
		Fs:     deps.Fs,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app, nil
}

// settings loads the configuration and applies the flags the user set on
// cmd. Flags always win over the config file and the environment.
func (a *App) settings(cmd *cobra.Command) (*settings, error) {
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("proxy") {
		cfg.Proxy.Address = a.flags.proxyAddress
	}
	if flags.Changed("proxy-user") {
		cfg.Proxy.Username = a.flags.proxyUsername
	}
	if flags.Changed("proxy-password") {
		cfg.Proxy.Password = a.flags.proxyPassword
	}
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = a.flags.timeout
	}
	if flags.Changed("interval") {
		cfg.HTTP.RequestInterval = a.flags.interval
	}

	s := &settings{
		cfg:     cfg,
		output:  cfg.UI.Output,
		verbose: cfg.UI.Verbose || a.flags.verbose,
	}
	if flags.Changed("output") {
		s.output = config.OutputFormat(a.flags.output)
	}
	if err := s.output.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("select output format").
			WithResource(string(s.output)).
			WithSuggestion("Use one of: text, json, toml, yaml, markdown").
			WithIssue(issue.InvalidOutputFormatId).
			Wrap(err).
			BuildError()
	}
	if err := cfg.HTTP.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("apply http flags").
			WithSuggestion("--timeout must be positive and --interval must not be negative").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	s.level = log.InfoLevel
	if lvl, err := log.ParseLevel(string(cfg.Log.Level)); err == nil {
		s.level = lvl
	}
	if s.verbose {
		s.level = log.DebugLevel
	}
	return s, nil
}

// logger creates a component logger writing to the App's stderr.
func (a *App) logger(s *settings, prefix string) *log.Logger {
	return log.NewWithOptions(a.stderr, log.Options{Prefix: prefix, Level: s.level})
}

// checker builds the URL checker for s. A proxy that cannot be parsed is
// reported before any request is sent.
func (a *App) checker(s *settings) (*urlcheck.Checker, error) {
	c := urlcheck.NewChecker(
		urlcheck.WithProxy(s.cfg.Proxy.Checker()),
		urlcheck.WithTimeout(s.cfg.HTTP.Timeout),
		urlcheck.WithUserAgent(s.cfg.HTTP.UserAgent),
		urlcheck.WithLogger(a.logger(s, "urlcheck")),
	)
	if err := c.Err(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("configure proxy").
			WithResource(s.cfg.Proxy.Address).
			WithSuggestion("Use host:port or a full URL such as http://proxy.example:8080").
			WithSuggestion("Check proxy.address in your config file and the PKGVET_PROXY_ADDRESS variable").
			WithIssue(issue.ProxyMisconfiguredId).
			Wrap(err).
			BuildError()
	}
	return c, nil
}

// validator builds a paced validator for s.
func (a *App) validator(s *settings) (*urlcheck.Validator, error) {
	c, err := a.checker(s)
	if err != nil {
		return nil, err
	}
	return urlcheck.NewValidator(c, urlcheck.WithInterval(s.cfg.HTTP.RequestInterval)), nil
}

// packageService builds the package check service for s.
func (a *App) packageService(s *settings) (*packagecheck.Service, error) {
	c, err := a.checker(s)
	if err != nil {
		return nil, err
	}
	return packagecheck.New(
		packagecheck.WithFs(a.Fs),
		packagecheck.WithChecker(c),
		packagecheck.WithValidatorOptions(urlcheck.WithInterval(s.cfg.HTTP.RequestInterval)),
		packagecheck.WithLogger(a.logger(s, "packagecheck")),
	), nil
}
