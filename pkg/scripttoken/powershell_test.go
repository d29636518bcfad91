// SPDX-License-Identifier: MPL-2.0

package scripttoken

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chocolateyInstall = strings.Join([]string{
	"<#",
	".SYNOPSIS",
	"  Installs demo",
	"#>",
	"$ErrorActionPreference = 'Stop'",
	`$toolsDir = "$(Split-Path -parent $MyInvocation.MyCommand.Definition)"`,
	"",
	"$packageArgs = @{",
	"  packageName    = $env:ChocolateyPackageName",
	"  fileType       = 'exe'",
	"  url            = 'https://example.com/demo-setup.exe'",
	"  silentArgs     = \"/S /D=`\"$toolsDir`\"\"",
	"  validExitCodes = @(0, 3010)",
	"}",
	"",
	"Install-ChocolateyPackage @packageArgs `",
	"  -Force",
	"",
}, "\n")

type kindText struct {
	Kind Kind
	Text string
}

func kindTexts(tokens []Token) []kindText {
	out := make([]kindText, 0, len(tokens))
	for _, tk := range tokens {
		out = append(out, kindText{tk.Kind, tk.Text})
	}
	return out
}

func TestShellTokenizer_ChocolateyInstallScript(t *testing.T) {
	t.Parallel()

	tokens, err := NewShellTokenizer().Tokenize(chocolateyInstall)
	require.NoError(t, err)

	got := kindTexts(tokens)
	for _, want := range []kindText{
		{KindComment, "<#"},
		{KindComment, ".SYNOPSIS"},
		{KindComment, "Installs demo"},
		{KindComment, "#>"},
		{KindVariable, "$ErrorActionPreference"},
		{KindString, "'Stop'"},
		{KindVariable, "$packageArgs"},
		{KindCommand, "packageName"},
		{KindVariable, "$env:ChocolateyPackageName"},
		{KindString, "'https://example.com/demo-setup.exe'"},
		{KindString, "\"/S /D=`\"$toolsDir`\"\""},
		{KindCommand, "Install-ChocolateyPackage"},
		{KindVariable, "@packageArgs"},
		{KindWord, "-Force"},
	} {
		assert.Contains(t, got, want)
	}

	for _, tk := range tokens {
		switch tk.Text {
		case "@packageArgs":
			assert.Equal(t, 16, tk.Line)
			assert.Equal(t, 27, tk.Col)
		case "$env:ChocolateyPackageName":
			assert.Equal(t, 9, tk.Line)
			assert.Equal(t, 20, tk.Col)
		}
	}
}

func TestShellTokenizer_WindowsLineEndings(t *testing.T) {
	t.Parallel()

	lf, err := NewShellTokenizer().Tokenize(chocolateyInstall)
	require.NoError(t, err)
	crlf, err := NewShellTokenizer().Tokenize(strings.ReplaceAll(chocolateyInstall, "\n", "\r\n"))
	require.NoError(t, err)

	var lfTexts, crlfTexts []kindText
	for _, kt := range kindTexts(lf) {
		if kt.Kind != KindComment {
			lfTexts = append(lfTexts, kt)
		}
	}
	for _, kt := range kindTexts(crlf) {
		if kt.Kind != KindComment {
			crlfTexts = append(crlfTexts, kt)
		}
	}
	assert.Equal(t, lfTexts, crlfTexts)
}

func TestNormalizePowerShell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "scoped variable", in: `Write-Host $env:TEMP $script:count`, want: `Write-Host $env_TEMP $script_count`},
		{name: "hashtable", in: "$h = @{ a = 1; b = @{ c = 2 } }", want: "$h = $( a = 1; b = $( c = 2 ) )"},
		{name: "script block inside hashtable", in: "@{ f = { x } }", want: "$( f = { x } )"},
		{name: "array", in: "$a = @(1, 2)", want: "$a = $(1, 2)"},
		{name: "splat", in: "Get-Item @params", want: "Get-Item $params"},
		{name: "at sign inside a word", in: "Send-Mail a@b.example", want: "Send-Mail a@b.example"},
		{name: "quoted text untouched", in: `Write-Host '@{ }' "#x"`, want: `Write-Host '@{ }' "#x"`},
		{name: "line comment untouched", in: "# see @{ x }\nls", want: "# see @{ x }\nls"},
		{name: "block comment", in: "<# one\n  two #>\nls", want: "## one\n  #wo #>\nls"},
		{name: "backtick escape", in: "Write-Host \"a`tb\"", want: `Write-Host "a\tb"`},
		{name: "continuation", in: "Get-Item `\n  -Force", want: "Get-Item \\\n  -Force"},
		{name: "continuation before crlf", in: "Get-Item `\r\n  -Force", want: "Get-Item  \\\n  -Force"},
		{name: "crlf", in: "ls\r\nls\r\n", want: "ls \nls \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := normalizePowerShell(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.in))
		})
	}
}
