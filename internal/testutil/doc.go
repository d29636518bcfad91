// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests: environment and home
// directory overrides that fail the test on error, and a manually driven
// clock for pacing tests.
package testutil
