// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tokenrelay is a capability-gated message relay. A client holding a
// read token keeps a websocket open at /v1/ws/{token}; anyone holding
// the matching write token can deliver text to it with
// POST /v1/post/{token} or over their own websocket. GET /v1/create
// mints a new pair.
//
// Tokens are sealed with a process-wide AES key read from
// $CREDENTIALS_DIRECTORY/ENCRYPTION_KEY. Without that file a key is
// generated at startup and logged; tokens minted under it stop working
// when the process restarts. When TLS_CERT and TLS_KEY are present in
// the same directory the relay serves HTTPS on [::]:8443, otherwise
// plain HTTP on [::]:8080.
//
// Usage:
//
//	tokenrelay [--config FILE] [--log-level LEVEL] [--metrics-address ADDR]
//
// The config file may also be named by TOKENRELAY_CONFIG. Flags override
// values from the file.
package main
