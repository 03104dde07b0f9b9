// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the token
// relay.
//
// Configuration comes from at most one file, named by the --config flag
// (via [LoadFile]) or the TOKENRELAY_CONFIG environment variable (via
// [Load]). With neither, [Default] applies unchanged. There is no
// directory search and no per-field environment override.
//
// Variable expansion is performed on credentials_directory after
// loading: ${VAR} and ${VAR:-default} patterns are expanded, and the
// default value is ${CREDENTIALS_DIRECTORY}, the variable systemd sets
// for units with LoadCredential=.
//
// This package depends on no other tokenrelay packages.
package config
