// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkgvet/pkgvet/internal/config"
	"github.com/pkgvet/pkgvet/internal/issue"

	"github.com/spf13/cobra"
)

const redacted = "********"

// configView is the output of `pkgvet config show`.
type configView struct {
	Source        string `json:"source" toml:"source" yaml:"source"`
	config.Config `yaml:",inline"`
}

// newConfigCommand creates the `pkgvet config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pkgvet configuration",
		Long: `Manage pkgvet configuration.

Configuration is stored in:
  - Linux: $XDG_CONFIG_HOME/pkgvet/config.cue (~/.config/pkgvet/config.cue)
  - macOS: ~/Library/Application Support/pkgvet/config.cue
  - Windows: %APPDATA%\pkgvet\config.cue

Every key can be overridden through a PKGVET_ environment variable, for
example PKGVET_PROXY_ADDRESS or PKGVET_HTTP_TIMEOUT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	s, err := app.settings(cmd)
	if err != nil {
		return err
	}

	view := configView{Source: s.cfg.SourcePath, Config: *s.cfg}
	if view.Proxy.Password != "" {
		view.Proxy.Password = redacted
	}
	view.UI.Output = s.output
	view.UI.Verbose = s.verbose
	return app.render(s, view)
}

func initConfig(app *App, force bool) error {
	path := app.flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(""); err != nil {
			return err
		}
	}

	if err := config.WriteDefault(path, force); err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("create config file").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err)
		if errors.Is(err, config.ErrConfigExists) {
			ctx.WithSuggestion("Use --force to overwrite it")
		}
		return ctx.BuildError()
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func (v configView) writeText(w io.Writer, _ bool) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if v.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), v.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	for _, section := range v.sections() {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(section.name))
		for _, kv := range section.values {
			value := kv[1]
			if value == "" {
				value = SubtitleStyle.Render("(not set)")
			} else {
				value = valueStyle.Render(value)
			}
			fmt.Fprintf(w, "  %s: %s\n", kv[0], value)
		}
	}
}

func (v configView) markdown() string {
	var sb strings.Builder
	sb.WriteString("# pkgvet configuration\n\n")
	source := v.Source
	if source == "" {
		source = "(using defaults)"
	}
	fmt.Fprintf(&sb, "Config file: `%s`\n\n", source)
	sb.WriteString("| Key | Value |\n|---|---|\n")
	for _, section := range v.sections() {
		for _, kv := range section.values {
			fmt.Fprintf(&sb, "| `%s.%s` | `%s` |\n", section.name, kv[0], kv[1])
		}
	}
	return sb.String()
}

type configSection struct {
	name   string
	values [][2]string
}

func (v configView) sections() []configSection {
	return []configSection{
		{name: "proxy", values: [][2]string{
			{"address", v.Proxy.Address},
			{"username", v.Proxy.Username},
			{"password", v.Proxy.Password},
		}},
		{name: "http", values: [][2]string{
			{"timeout", v.HTTP.Timeout.String()},
			{"request_interval", v.HTTP.RequestInterval.String()},
			{"user_agent", v.HTTP.UserAgent},
		}},
		{name: "log", values: [][2]string{
			{"level", string(v.Log.Level)},
		}},
		{name: "ui", values: [][2]string{
			{"verbose", fmt.Sprintf("%v", v.UI.Verbose)},
			{"output", string(v.UI.Output)},
		}},
	}
}
