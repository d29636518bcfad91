// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkgvet/pkgvet/internal/issue"
	"github.com/pkgvet/pkgvet/pkg/urlcheck"

	"github.com/spf13/cobra"
)

// verdictView is the output of `pkgvet check-url`.
type verdictView struct {
	urlcheck.Verdict `yaml:",inline"`
}

// newCheckURLCommand creates the `pkgvet check-url` command.
func newCheckURLCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check-url <url>",
		Short: "Check whether a single URL is reachable",
		Long: `Check whether a single URL is reachable.

The URL is requested with browser-like headers. A 200 answer passes, as do
permanent redirects, 302 answers and Cloudflare challenges. mailto links
always fail. Schemes other than http and https pass without a request.`,
		Example: `  pkgvet check-url https://example.com/download
  pkgvet check-url www.example.com --proxy proxy.local:3128`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckURL(cmd, app, args[0])
		},
	}
}

func runCheckURL(cmd *cobra.Command, app *App, raw string) error {
	s, err := app.settings(cmd)
	if err != nil {
		return err
	}

	u, err := urlcheck.ParseCandidate(strings.TrimSpace(raw))
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("parse URL").
			WithResource(raw).
			WithSuggestion("Quote the URL so the shell does not split or expand it").
			WithIssue(issue.InputReadFailedId).
			Wrap(err).
			BuildError()
	}

	checker, err := app.checker(s)
	if err != nil {
		return err
	}

	v := checker.Check(cmd.Context(), u)
	if err := app.render(s, verdictView{v}); err != nil {
		return err
	}
	if !v.Valid {
		writeIssueHelp(app.stderr, s, issue.UrlUnreachableId)
		return &ExitError{Code: ExitFailed, Err: fmt.Errorf("URL check failed: %s (%s)", v.URL, v.Reason)}
	}
	return nil
}

func (v verdictView) writeText(w io.Writer, verbose bool) {
	writeVerdictLine(w, v.Verdict, "", verbose)
}

func (v verdictView) markdown() string {
	var sb strings.Builder
	sb.WriteString("# URL check\n\n")
	writeVerdictTable(&sb, []urlcheck.Verdict{v.Verdict})
	return sb.String()
}

// writeVerdictLine prints one verdict as a status mark, the URL and the
// reason code. Status codes and request errors are only shown in verbose
// mode.
func writeVerdictLine(w io.Writer, v urlcheck.Verdict, indent string, verbose bool) {
	mark := passMark()
	if !v.Valid {
		mark = failMark()
	}
	target := v.URL
	if target == "" {
		target = "(none)"
	}
	fmt.Fprintf(w, "%s%s %s %s\n", indent, mark, CmdStyle.Render(target), VerboseStyle.Render(string(v.Reason)))
	if !verbose {
		return
	}
	if v.StatusCode != 0 {
		fmt.Fprintf(w, "%s    %s\n", indent, VerboseStyle.Render(fmt.Sprintf("status: %d", v.StatusCode)))
	}
	if v.Err != nil {
		fmt.Fprintf(w, "%s    %s\n", indent, VerboseStyle.Render("error: "+v.Err.Error()))
	}
}

// writeVerdictTable writes verdicts as a Markdown table.
func writeVerdictTable(sb *strings.Builder, verdicts []urlcheck.Verdict) {
	sb.WriteString("| Result | URL | Reason | Status |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, v := range verdicts {
		result := "pass"
		if !v.Valid {
			result = "**fail**"
		}
		status := "-"
		if v.StatusCode != 0 {
			status = fmt.Sprintf("%d", v.StatusCode)
		}
		fmt.Fprintf(sb, "| %s | `%s` | %s | %s |\n", result, v.URL, v.Reason, status)
	}
}
