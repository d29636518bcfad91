// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkgvet/pkgvet/internal/issue"
	"github.com/pkgvet/pkgvet/internal/packagecheck"
	"github.com/pkgvet/pkgvet/pkg/scripttoken"

	"github.com/spf13/cobra"
)

// checkView is the output of `pkgvet check`.
type checkView struct {
	packagecheck.Result `yaml:",inline"`
}

// newCheckCommand creates the `pkgvet check` command.
func newCheckCommand(app *App) *cobra.Command {
	var showTokens bool

	cmd := &cobra.Command{
		Use:   "check <package>",
		Short: "Run every check on a package",
		Long: `Run every check on a package.

The package may be a .nupkg archive or an extracted package directory.
pkgvet resolves the automation scripts, checks every URL in the manifest
metadata and in the scripts, and lists bundled binaries. With --tokens every
script is also tokenized and a script that cannot be tokenized fails the
check. The command fails when any URL fails.`,
		Example: `  pkgvet check ./demo.1.0.0.nupkg
  pkgvet check ./demo --output markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, app, args[0], showTokens)
		},
	}
	cmd.Flags().BoolVar(&showTokens, "tokens", false, "tokenize every script and include the tokens in the report")
	return cmd
}

func runCheck(cmd *cobra.Command, app *App, target string, showTokens bool) error {
	s, err := app.settings(cmd)
	if err != nil {
		return err
	}

	svc, err := app.packageService(s)
	if err != nil {
		return err
	}

	result, err := svc.Run(cmd.Context(), packagecheck.Request{Target: target, Tokenize: showTokens, CheckURLs: true})
	if err != nil {
		return packageError(target, err)
	}

	if err := app.render(s, checkView{*result}); err != nil {
		return err
	}
	if !result.Valid {
		writeIssueHelp(app.stderr, s, issue.UrlUnreachableId)
		return &ExitError{
			Code: ExitFailed,
			Err:  fmt.Errorf("package %s failed URL validation", target),
		}
	}
	return nil
}

// packageError turns a packagecheck failure into an ActionableError.
func packageError(target string, err error) error {
	ctx := issue.NewErrorContext().WithResource(target).Wrap(err)
	switch {
	case errors.Is(err, packagecheck.ErrOpenPackage):
		ctx.WithOperation("open package").
			WithSuggestion("Pass a .nupkg file or an extracted package directory").
			WithIssue(issue.ArchiveOpenFailedId)
	case errors.Is(err, scripttoken.ErrTokenize):
		ctx.WithOperation("tokenize automation scripts").
			WithSuggestion("Run 'pkgvet scripts' to see which scripts were resolved").
			WithIssue(issue.ScriptTokenizeFailedId)
	default:
		ctx.WithOperation("read package manifest").
			WithSuggestion("Check that the .nuspec file is well-formed XML").
			WithIssue(issue.ManifestParseErrorId)
	}
	return ctx.BuildError()
}

func (v checkView) writeText(w io.Writer, verbose bool) {
	writePackageHeader(w, &v.Result)

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Scripts"))
	writeScriptList(w, v.Scripts)
	if len(v.Tokens) > 0 {
		writeTokens(w, v.Tokens)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("URLs"))
	total := 0
	if len(v.URLs) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no URLs found)"))
	}
	for _, u := range v.URLs {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render(string(u.Kind)), u.Source)
		if u.Error != "" {
			fmt.Fprintf(w, "    %s %s\n", failMark(), ErrorStyle.Render(u.Error))
		}
		for _, vd := range u.Report.Verdicts {
			writeVerdictLine(w, vd, "    ", verbose)
		}
		total += len(u.Report.Verdicts)
	}

	if len(v.Binaries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Binaries"))
		for _, b := range v.Binaries {
			fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("!"), CmdStyle.Render(b))
		}
	}

	fmt.Fprintln(w)
	if v.Valid {
		fmt.Fprintf(w, "%s %d URLs checked, all reachable\n", passMark(), total)
		return
	}
	failed := len(v.FailedURLs())
	if failed == 0 {
		fmt.Fprintf(w, "%s %s\n", failMark(), ErrorStyle.Render("URL validation did not complete"))
		return
	}
	fmt.Fprintf(w, "%s %s\n", failMark(), ErrorStyle.Render(fmt.Sprintf("%d of %d URLs failed", failed, total)))
}

func (v checkView) markdown() string {
	var sb strings.Builder

	title := v.ID
	if title == "" {
		title = v.Target
	}
	fmt.Fprintf(&sb, "# Package check: %s %s\n\n", title, v.Version)
	if v.Valid {
		sb.WriteString("**Result:** pass\n\n")
	} else {
		sb.WriteString("**Result:** fail\n\n")
	}

	sb.WriteString("## Scripts\n\n")
	writeScriptTable(&sb, v.Scripts)

	sb.WriteString("\n## URLs\n\n")
	if len(v.URLs) == 0 {
		sb.WriteString("No URLs found.\n")
	}
	for _, u := range v.URLs {
		fmt.Fprintf(&sb, "### %s: %s\n\n", u.Kind, u.Source)
		if u.Error != "" {
			fmt.Fprintf(&sb, "> %s\n\n", u.Error)
		}
		if len(u.Report.Verdicts) > 0 {
			writeVerdictTable(&sb, u.Report.Verdicts)
			sb.WriteString("\n")
		}
	}

	if len(v.Binaries) > 0 {
		sb.WriteString("\n## Binaries\n\n")
		for _, b := range v.Binaries {
			fmt.Fprintf(&sb, "- `%s`\n", b)
		}
	}
	return sb.String()
}

// writePackageHeader prints the package identity, or the target when the
// package has no manifest.
func writePackageHeader(w io.Writer, r *packagecheck.Result) {
	if r.ID == "" {
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Package"), r.Target)
		fmt.Fprintf(w, "  %s\n", WarningStyle.Render("no .nuspec manifest found"))
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", TitleStyle.Render("Package"), r.ID, SubtitleStyle.Render(r.Version))
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("manifest:"), CmdStyle.Render(r.Manifest))
}
