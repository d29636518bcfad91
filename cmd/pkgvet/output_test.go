// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pkgvet/pkgvet/internal/config"
	"github.com/pkgvet/pkgvet/pkg/urlcheck"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() reportView {
	return reportView{
		Source: "notes.md",
		Report: urlcheck.Report{
			Valid: false,
			Verdicts: []urlcheck.Verdict{
				{URL: "https://ok.example/", Valid: true, Reason: urlcheck.ReasonOK, StatusCode: http.StatusOK},
				{URL: "https://gone.example/", Valid: false, Reason: urlcheck.ReasonUnexpectedStatus, StatusCode: http.StatusNotFound},
			},
		},
	}
}

func renderTo(t *testing.T, format config.OutputFormat, verbose bool, v view) string {
	t.Helper()

	var buf bytes.Buffer
	app, err := NewApp(Dependencies{Stdout: &buf})
	require.NoError(t, err)
	require.NoError(t, app.render(&settings{cfg: config.DefaultConfig(), output: format, verbose: verbose}, v))
	return buf.String()
}

func TestRender_Text(t *testing.T) {
	t.Parallel()

	out := renderTo(t, config.OutputText, false, sampleReport())
	assert.Contains(t, out, "URLs in notes.md")
	assert.Contains(t, out, "https://gone.example/")
	assert.Contains(t, out, "unexpected_status")
	assert.Contains(t, out, "1 of 2 URLs failed")
	assert.NotContains(t, out, "status: 404")

	verbose := renderTo(t, config.OutputText, true, sampleReport())
	assert.Contains(t, verbose, "status: 404")
}

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	out := renderTo(t, config.OutputJSON, false, sampleReport())

	var got struct {
		Source   string             `json:"source"`
		Valid    bool               `json:"valid"`
		Verdicts []urlcheck.Verdict `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "notes.md", got.Source)
	assert.False(t, got.Valid)
	require.Len(t, got.Verdicts, 2)
	assert.Equal(t, urlcheck.ReasonUnexpectedStatus, got.Verdicts[1].Reason)
}

func TestRender_TOML(t *testing.T) {
	t.Parallel()

	out := renderTo(t, config.OutputTOML, false, sampleReport())

	var got struct {
		Source   string `toml:"source"`
		Valid    bool   `toml:"valid"`
		Verdicts []struct {
			URL        string `toml:"url"`
			StatusCode int    `toml:"status_code"`
		} `toml:"verdicts"`
	}
	require.NoError(t, toml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "notes.md", got.Source)
	assert.False(t, got.Valid)
	require.Len(t, got.Verdicts, 2)
	assert.Equal(t, "https://gone.example/", got.Verdicts[1].URL)
	assert.Equal(t, http.StatusNotFound, got.Verdicts[1].StatusCode)
}

func TestRender_YAML(t *testing.T) {
	t.Parallel()

	out := renderTo(t, config.OutputYAML, false, sampleReport())
	assert.Contains(t, out, "source: notes.md\n")

	var got struct {
		Source   string `yaml:"source"`
		Valid    bool   `yaml:"valid"`
		Verdicts []struct {
			URL        string          `yaml:"url"`
			Reason     urlcheck.Reason `yaml:"reason"`
			StatusCode int             `yaml:"status_code"`
		} `yaml:"verdicts"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.False(t, got.Valid)
	require.Len(t, got.Verdicts, 2)
	assert.Equal(t, urlcheck.ReasonOK, got.Verdicts[0].Reason)
	assert.Equal(t, http.StatusNotFound, got.Verdicts[1].StatusCode)
}

func TestRender_Markdown(t *testing.T) {
	t.Parallel()

	md := sampleReport().markdown()
	assert.Contains(t, md, "# URLs in notes.md")
	assert.Contains(t, md, "| **fail** | `https://gone.example/` | unexpected_status | 404 |")

	out := renderTo(t, config.OutputMarkdown, false, sampleReport())
	assert.Contains(t, out, "URLs in notes.md")
}

func TestMarkdownCell(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `a \| b 'c' d`, markdownCell("a | b `c`\nd"))
}
