// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pkgvet/pkgvet/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// displayError carries the user-facing rendering of an ActionableError.
// fang prints Error() as is, so suggestions have to be part of the text.
type displayError struct {
	text string
	err  error
}

func (e *displayError) Error() string { return e.text }

func (e *displayError) Unwrap() error { return e.err }

// NewRootCommand builds the pkgvet command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkgvet",
		Short: "Vet Chocolatey packages before they are published",
		Long: TitleStyle.Render("pkgvet") + SubtitleStyle.Render(" - Vet Chocolatey packages before they are published") + `

pkgvet inspects .nupkg archives and extracted package directories. It
resolves the PowerShell automation scripts a package runs, tokenizes them,
and checks that every URL in the package metadata and scripts is reachable.

` + SubtitleStyle.Render("Examples:") + `
  pkgvet check ./demo.1.0.0.nupkg      Run every check on a package
  pkgvet scripts ./demo --tokens       List automation scripts with tokens
  pkgvet urls notes.md                 Check the URLs found in a file
  pkgvet check-url https://example.com Check a single URL
  pkgvet config show                   Show the effective configuration`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output and debug logging")
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pkgvet/config.cue)")
	flags.StringVarP(&app.flags.output, "output", "o", "text", "output format: text, json, toml, yaml or markdown")
	flags.StringVar(&app.flags.proxyAddress, "proxy", "", "HTTP proxy for URL checks (host:port or URL)")
	flags.StringVar(&app.flags.proxyUsername, "proxy-user", "", "proxy username")
	flags.StringVar(&app.flags.proxyPassword, "proxy-password", "", "proxy password")
	flags.DurationVar(&app.flags.timeout, "timeout", 0, "per-request timeout for URL checks (default 30s)")
	flags.DurationVar(&app.flags.interval, "interval", 0, "minimum pause between URL checks (default 1s)")

	rootCmd.AddCommand(
		newCheckCommand(app),
		newScriptsCommand(app),
		newURLsCommand(app),
		newCheckURLCommand(app),
		newConfigCommand(app),
	)

	withDisplayErrors(app, rootCmd)
	return rootCmd
}

// withDisplayErrors makes every RunE handler in the tree return
// ActionableErrors with their suggestions rendered into the message.
func withDisplayErrors(app *App, c *cobra.Command) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			var ae *issue.ActionableError
			if err != nil && errors.As(err, &ae) {
				return &displayError{text: formatErrorForDisplay(err, app.flags.verbose), err: err}
			}
			return err
		}
	}
	for _, sub := range c.Commands() {
		withDisplayErrors(app, sub)
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return ExitUsage
	}

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(printError),
	); err != nil {
		return exitCode(err)
	}
	return 0
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

// printError writes err to w verbatim. fang's default handler re-cases the
// first word and wraps long lines, which mangles URLs and suggestion lists.
func printError(w io.Writer, _ fang.Styles, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+err.Error())
}

// exitCode maps an error returned by the command tree to a process exit
// code. Errors without an explicit code are usage or setup errors.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain and the linked help page.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return err.Error()
	}
	text := ae.Format(verboseMode)
	if verboseMode {
		if page := ae.Issue(); page != nil {
			if rendered, renderErr := page.Render("notty"); renderErr == nil {
				text += "\n" + rendered
			}
		}
	}
	return text
}

// writeIssueHelp prints a help page to w when verbose output is on.
func writeIssueHelp(w io.Writer, s *settings, id issue.Id) {
	if !s.verbose {
		return
	}
	if rendered, err := issue.Get(id).Render("notty"); err == nil {
		fmt.Fprint(w, rendered)
	}
}
