// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	ArchiveOpenFailedId Id = iota + 1
	ManifestNotFoundId
	ManifestParseErrorId
	ScriptTokenizeFailedId
	UrlUnreachableId
	ConfigLoadFailedId
	InvalidOutputFormatId
	ProxyMisconfiguredId
	InputReadFailedId
)

type (
	// Id identifies a known failure class.
	Id int

	// MarkdownMsg is the Markdown body of a help page.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is a help page for one failure class.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

var (
	render = glamour.Render

	archiveOpenFailedIssue = &Issue{
		id: ArchiveOpenFailedId,
		mdMsg: `
# Could not open the package!

pkgvet reads either a ` + "`.nupkg`" + ` file or a directory containing an
extracted package.

## Things you can try:
- Check that the path exists and is readable
- Check that the file is a valid zip archive:
~~~
$ unzip -l demo.1.0.0.nupkg
~~~
- Point pkgvet at the extracted directory instead`,
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No package manifest found!

Every package carries exactly one ` + "`.nuspec`" + ` file at its root.
Metadata fields such as release notes and project URLs are read from it.

## Things you can try:
- Make sure the ` + "`.nuspec`" + ` file is not inside a subdirectory
- Rebuild the package with ` + "`choco pack`",
		docLinks: []HttpLink{"https://docs.chocolatey.org/en-us/create/create-packages"},
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# The package manifest is not valid XML!

## Things you can try:
- Open the ` + "`.nuspec`" + ` file in an editor and look for unclosed elements
- Escape ` + "`&`" + ` as ` + "`&amp;`" + ` in URLs and descriptions`,
	}

	scriptTokenizeFailedIssue = &Issue{
		id: ScriptTokenizeFailedId,
		mdMsg: `
# An automation script could not be tokenized!

The tokenizer rejected the script text. Tokenizer failures are never
skipped, so no token listing is produced for the package.

## Things you can try:
- Run the command again without ` + "`--tokens`" + ` to list the scripts only
- Check the reported line and column in the script`,
	}

	urlUnreachableIssue = &Issue{
		id: UrlUnreachableId,
		mdMsg: `
# Some URLs could not be reached!

Each URL gets one GET request with browser headers and a 30 second timeout.
Only a 200 response passes, apart from a few accepted anomalies:

- a "Permanent Redirect" reason phrase
- a 403 served by Cloudflare
- a 302 response
- connection resets and TLS cipher mismatches on the checking host

## Things you can try:
- Open the failing URL in a browser
- Replace mailto links with a web page
- Configure a proxy if the host blocks your network:
~~~cue
proxy: {
	address: "http://proxy.example.com:8080"
}
~~~`,
		extLinks: []HttpLink{
			"https://github.com/chocolatey/package-validator/issues/234",
		},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Print the effective configuration:
~~~
$ pkgvet config show
~~~
- Write a fresh default file:
~~~
$ pkgvet config init
~~~`,
	}

	invalidOutputFormatIssue = &Issue{
		id: InvalidOutputFormatId,
		mdMsg: `
# Unknown output format!

## Supported formats:
- ` + "`text`" + ` (default)
- ` + "`json`" + `
- ` + "`toml`" + `
- ` + "`markdown`",
	}

	proxyMisconfiguredIssue = &Issue{
		id: ProxyMisconfiguredId,
		mdMsg: `
# The proxy address is not valid!

Use ` + "`host:port`" + ` or a full URL such as ` + "`http://proxy:8080`" + `.
Credentials are only sent when both username and password are set.

## Things you can try:
- Set ` + "`PKGVET_PROXY_ADDRESS`" + ` or ` + "`proxy.address`" + ` in your config file`,
	}

	inputReadFailedIssue = &Issue{
		id: InputReadFailedId,
		mdMsg: `
# Could not read the input text!

## Things you can try:
- Pass a readable file path
- Use ` + "`-`" + ` or no argument to read from standard input`,
	}

	issues = map[Id]*Issue{
		archiveOpenFailedIssue.Id():    archiveOpenFailedIssue,
		manifestNotFoundIssue.Id():     manifestNotFoundIssue,
		manifestParseErrorIssue.Id():   manifestParseErrorIssue,
		scriptTokenizeFailedIssue.Id(): scriptTokenizeFailedIssue,
		urlUnreachableIssue.Id():       urlUnreachableIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		invalidOutputFormatIssue.Id():  invalidOutputFormatIssue,
		proxyMisconfiguredIssue.Id():   proxyMisconfiguredIssue,
		inputReadFailedIssue.Id():      inputReadFailedIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the page body followed by a "See also" list when the
// issue has links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			sb.WriteString("- " + string(link) + "\n")
		}
		for _, link := range i.extLinks {
			sb.WriteString("- " + string(link) + "\n")
		}
	}
	return sb.String()
}

// Render renders the page for the terminal using a glamour style name
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

// Values returns every known issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
