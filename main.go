// SPDX-License-Identifier: MPL-2.0

// pkgvet vets Chocolatey packages: it resolves their automation scripts and
// checks that the URLs in their metadata and scripts are reachable.
package main

import cmd "github.com/pkgvet/pkgvet/cmd/pkgvet"

func main() {
	cmd.Execute()
}
