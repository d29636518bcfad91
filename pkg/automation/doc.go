// SPDX-License-Identifier: MPL-2.0

// Package automation identifies the automation scripts of a package.
//
// A package declares its install, uninstall and before-modify behaviour
// through three well-known PowerShell entrypoints. Entrypoints routinely
// dot-source or import helper scripts shipped next to them, so Resolve also
// scans each entrypoint for file names ending in .ps1 or .psm1 and pulls in
// the matching archive entries. There is no manifest describing these
// references; discovery is purely textual.
//
// Lookup is by file-name suffix rather than exact path, so a reference such
// as `. "$PSScriptRoot\helpers.ps1"` finds `tools/helpers.ps1` regardless of
// how the archive lays out its directories.
package automation
