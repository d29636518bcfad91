// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkgvet/pkgvet/internal/packagecheck"
	"github.com/pkgvet/pkgvet/pkg/scripttoken"

	"github.com/spf13/cobra"
)

// scriptsView is the output of `pkgvet scripts`.
type scriptsView struct {
	packagecheck.Result `yaml:",inline"`
}

// newScriptsCommand creates the `pkgvet scripts` command.
func newScriptsCommand(app *App) *cobra.Command {
	var showTokens bool

	cmd := &cobra.Command{
		Use:   "scripts <package>",
		Short: "List the automation scripts a package runs",
		Long: `List the automation scripts a package runs.

Entrypoints are chocolateyInstall.ps1, chocolateyUninstall.ps1 and
chocolateyBeforeModify.ps1. Other .ps1 and .psm1 files are only listed when
an entrypoint references them by file name.`,
		Example: `  pkgvet scripts ./demo.1.0.0.nupkg
  pkgvet scripts ./demo --tokens --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(cmd, app, args[0], showTokens)
		},
	}
	cmd.Flags().BoolVar(&showTokens, "tokens", false, "tokenize every script and print its tokens")
	return cmd
}

func runScripts(cmd *cobra.Command, app *App, target string, showTokens bool) error {
	s, err := app.settings(cmd)
	if err != nil {
		return err
	}

	svc := packagecheck.New(
		packagecheck.WithFs(app.Fs),
		packagecheck.WithLogger(app.logger(s, "packagecheck")),
	)
	result, err := svc.Run(cmd.Context(), packagecheck.Request{Target: target, Tokenize: showTokens})
	if err != nil {
		return packageError(target, err)
	}
	return app.render(s, scriptsView{*result})
}

func (v scriptsView) writeText(w io.Writer, verbose bool) {
	writePackageHeader(w, &v.Result)
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Scripts"))
	writeScriptList(w, v.Scripts)
	if len(v.Tokens) > 0 {
		writeTokens(w, v.Tokens)
	}
}

func (v scriptsView) markdown() string {
	var sb strings.Builder
	title := v.ID
	if title == "" {
		title = v.Target
	}
	fmt.Fprintf(&sb, "# Automation scripts: %s\n\n", title)
	writeScriptTable(&sb, v.Scripts)
	for _, path := range tokenPaths(v.Tokens) {
		fmt.Fprintf(&sb, "\n## Tokens: %s\n\n", path)
		sb.WriteString("| Line | Col | Kind | Text |\n|---|---|---|---|\n")
		for _, tok := range v.Tokens[path] {
			fmt.Fprintf(&sb, "| %d | %d | %s | `%s` |\n", tok.Line, tok.Col, tok.Kind, markdownCell(tok.Text))
		}
	}
	return sb.String()
}

func writeScriptList(w io.Writer, scripts []packagecheck.ScriptSummary) {
	if len(scripts) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no automation scripts)"))
		return
	}
	for _, sc := range scripts {
		role := "entrypoint"
		if !sc.Entrypoint {
			role = "referenced by " + sc.ReferencedBy
		}
		fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(sc.Path), SubtitleStyle.Render(fmt.Sprintf("(%s, %d lines)", role, sc.Lines)))
	}
}

func writeScriptTable(sb *strings.Builder, scripts []packagecheck.ScriptSummary) {
	if len(scripts) == 0 {
		sb.WriteString("No automation scripts.\n")
		return
	}
	sb.WriteString("| Script | Role | Lines |\n|---|---|---|\n")
	for _, sc := range scripts {
		role := "entrypoint"
		if !sc.Entrypoint {
			role = "referenced by `" + sc.ReferencedBy + "`"
		}
		fmt.Fprintf(sb, "| `%s` | %s | %d |\n", sc.Path, role, sc.Lines)
	}
}

func writeTokens(w io.Writer, tokens scripttoken.TokenMap) {
	for _, path := range tokenPaths(tokens) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Tokens")+" "+CmdStyle.Render(path))
		for _, tok := range tokens[path] {
			pos := fmt.Sprintf("%d:%d", tok.Line, tok.Col)
			fmt.Fprintf(w, "  %-7s %-9s %s\n", pos, VerboseStyle.Render(string(tok.Kind)), tok.Text)
		}
	}
}

func tokenPaths(tokens scripttoken.TokenMap) []string {
	paths := make([]string, 0, len(tokens))
	for p := range tokens {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// markdownCell keeps token text from breaking a table row.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "`", "'")
}
