// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pkgvet.
//
// This package implements the Cobra command hierarchy: package checks,
// script listing, URL validation for files and single URLs, and
// configuration management. Commands receive an App, which loads the
// configuration, applies persistent flags and builds the checkers and
// services they run.
package cmd
