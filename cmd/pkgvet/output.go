// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkgvet/pkgvet/internal/config"

	"github.com/charmbracelet/glamour"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const markdownWidth = 100

// view is implemented by the result types each command prints. The value
// itself is what json, toml and yaml output encode.
type view interface {
	writeText(w io.Writer, verbose bool)
	markdown() string
}

// render writes v to the App's stdout in the selected output format.
func (a *App) render(s *settings, v view) error {
	switch s.output {
	case config.OutputJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputTOML:
		enc := toml.NewEncoder(a.stdout)
		enc.SetIndentTables(true)
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.OutputMarkdown:
		out, err := renderMarkdown(v.markdown())
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		_, err = io.WriteString(a.stdout, out)
		return err
	default:
		v.writeText(a.stdout, s.verbose)
		return nil
	}
}

// renderMarkdown renders content using glamour, picking a style that
// matches the terminal (plain text when stdout is not a terminal).
func renderMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
