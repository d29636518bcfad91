// SPDX-License-Identifier: MPL-2.0

// Package config handles pkgvet configuration using Viper with CUE as the
// file format.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, the config.cue file (from --config or the platform config
// directory), then PKGVET_* environment variables such as
// PKGVET_PROXY_ADDRESS. Files are validated against the embedded
// config_schema.cue before they are merged.
package config
