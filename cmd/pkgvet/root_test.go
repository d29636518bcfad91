// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/pkgvet/pkgvet/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		assert.Equal(t, "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)", getVersionString())
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		assert.Equal(t, "dev (built from source)", getVersionString())
	})
}

func TestNewRootCommand_Tree(t *testing.T) {
	t.Parallel()

	app, err := NewApp(Dependencies{})
	require.NoError(t, err)
	root := NewRootCommand(app)

	for _, path := range [][]string{
		{"check"},
		{"scripts"},
		{"urls"},
		{"check-url"},
		{"config", "show"},
		{"config", "init"},
	} {
		c, _, err := root.Find(path)
		require.NoError(t, err, "command %v", path)
		assert.NotNil(t, c.RunE, "command %v", path)
	}

	for _, name := range []string{"verbose", "config", "output", "proxy", "proxy-user", "proxy-password", "timeout", "interval"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag --%s", name)
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "failed check", err: &ExitError{Code: ExitFailed}, want: ExitFailed},
		{name: "wrapped", err: fmt.Errorf("outer: %w", &ExitError{Code: 7}), want: 7},
		{name: "behind display error", err: &displayError{text: "x", err: &ExitError{Code: ExitFailed}}, want: ExitFailed},
		{name: "plain error", err: errors.New("boom"), want: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("2 URLs failed")
	err := &ExitError{Code: ExitFailed, Err: cause}
	assert.Equal(t, "2 URLs failed", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "exit status 2", (&ExitError{Code: ExitUsage}).Error())
}

func TestPrintError_KeepsMessageVerbatim(t *testing.T) {
	t.Parallel()

	msg := "URL check failed: http://127.0.0.1:8080/a/very/long/path/that/would/otherwise/be/wrapped/by/the/default/handler (unexpected_status)"

	var buf bytes.Buffer
	printError(&buf, fang.Styles{}, &ExitError{Code: ExitFailed, Err: errors.New(msg)})

	out := buf.String()
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, msg+"\n")
	assert.NotContains(t, out, "Url check failed")
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	ae := issue.NewErrorContext().
		WithOperation("open package").
		WithResource("demo.nupkg").
		WithSuggestion("Pass a .nupkg file").
		WithIssue(issue.ArchiveOpenFailedId).
		Wrap(fmt.Errorf("stat: %w", errors.New("no such file"))).
		Build()

	plain := formatErrorForDisplay(fmt.Errorf("wrapped: %w", ae), false)
	assert.Contains(t, plain, "failed to open package: demo.nupkg")
	assert.Contains(t, plain, "Pass a .nupkg file")
	assert.NotContains(t, plain, "Error chain")
	assert.NotContains(t, plain, "Could not open the package")

	verbose := formatErrorForDisplay(ae, true)
	assert.Contains(t, verbose, "Error chain")
	assert.Contains(t, verbose, "no such file")
	assert.Contains(t, verbose, "Could not open the package")

	assert.Equal(t, "boom", formatErrorForDisplay(errors.New("boom"), true))
}
