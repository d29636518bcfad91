// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkgvet/pkgvet/internal/issue"
	"github.com/pkgvet/pkgvet/pkg/urlcheck"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const stdinSource = "-"

// reportView is the output of `pkgvet urls`.
type reportView struct {
	Source          string `json:"source" toml:"source" yaml:"source"`
	urlcheck.Report `yaml:",inline"`
}

// newURLsCommand creates the `pkgvet urls` command.
func newURLsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "urls [file|-]",
		Short: "Check every URL found in a text file",
		Long: `Check every URL found in a text file, or in standard input when no file
is given or the file is "-".

URLs are checked one at a time in order of appearance, with a pause between
consecutive requests (see --interval). The command fails when any URL fails.`,
		Example: `  pkgvet urls release-notes.md
  cat tools/chocolateyInstall.ps1 | pkgvet urls -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := stdinSource
			if len(args) == 1 {
				source = args[0]
			}
			return runURLs(cmd, app, source)
		},
	}
}

func runURLs(cmd *cobra.Command, app *App, source string) error {
	s, err := app.settings(cmd)
	if err != nil {
		return err
	}

	text, err := app.readInput(source)
	if err != nil {
		return err
	}

	validator, err := app.validator(s)
	if err != nil {
		return err
	}

	report := validator.Validate(cmd.Context(), text)
	if report.Err != nil {
		if errors.Is(report.Err, urlcheck.ErrExtraction) {
			return issue.NewErrorContext().
				WithOperation("extract URLs").
				WithResource(source).
				WithSuggestion("Fix or remove the malformed URL; nothing was requested").
				WithIssue(issue.InputReadFailedId).
				Wrap(report.Err).
				BuildError()
		}
		return report.Err
	}

	if err := app.render(s, reportView{Source: source, Report: report}); err != nil {
		return err
	}
	if !report.Valid {
		writeIssueHelp(app.stderr, s, issue.UrlUnreachableId)
		failed := report.Failed()
		return &ExitError{
			Code: ExitFailed,
			Err:  fmt.Errorf("%d of %d URLs failed validation", len(failed), len(report.Verdicts)),
		}
	}
	return nil
}

// readInput reads source from the App's filesystem, or stdin for "-".
func (a *App) readInput(source string) (string, error) {
	var (
		data []byte
		err  error
	)
	if source == stdinSource {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = afero.ReadFile(a.Fs, source)
	}
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("read input").
			WithResource(source).
			WithSuggestion("Check that the file exists and is readable").
			WithIssue(issue.InputReadFailedId).
			Wrap(err).
			BuildError()
	}
	return string(data), nil
}

func (v reportView) writeText(w io.Writer, verbose bool) {
	name := v.Source
	if name == stdinSource {
		name = "stdin"
	}
	fmt.Fprintln(w, TitleStyle.Render("URLs in "+name))
	if len(v.Verdicts) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no URLs found)"))
		return
	}
	for _, vd := range v.Verdicts {
		writeVerdictLine(w, vd, "  ", verbose)
	}
	fmt.Fprintln(w)
	writeSummary(w, len(v.Verdicts), len(v.Failed()))
}

func (v reportView) markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# URLs in %s\n\n", v.Source)
	if len(v.Verdicts) == 0 {
		sb.WriteString("No URLs found.\n")
		return sb.String()
	}
	writeVerdictTable(&sb, v.Verdicts)
	return sb.String()
}

// writeSummary prints the final pass/fail line of a URL report.
func writeSummary(w io.Writer, total, failed int) {
	if failed == 0 {
		fmt.Fprintf(w, "%s %d URLs checked, all reachable\n", passMark(), total)
		return
	}
	fmt.Fprintf(w, "%s %s\n", failMark(), ErrorStyle.Render(fmt.Sprintf("%d of %d URLs failed", failed, total)))
}
