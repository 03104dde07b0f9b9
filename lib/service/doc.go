// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the listener lifecycle shared by the relay
// binary's servers.
//
// [HTTPServer] binds a TCP listener, optionally terminates TLS, and
// shuts down gracefully when its context is cancelled. The relay's
// public endpoint and the optional metrics endpoint each run on one.
//
// Upgraded websocket connections are hijacked and so are not tracked
// by http.Server.Shutdown. Request contexts derive from the context
// passed to Serve, so long-lived handlers observe cancellation and can
// close their connections themselves.
package service
