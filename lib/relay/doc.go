// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay is the HTTP surface of the token relay.
//
// [Server.Handler] routes four endpoints under /v1:
//
//	GET  /v1/              liveness, always "OK"
//	GET  /v1/ws/{token}    websocket session for either role
//	POST /v1/post/{token}  deliver the body to the read-role holder
//	GET  /v1/create        mint a fresh read/write token pair
//
// Token failures of any kind surface as 404 so a caller cannot tell a
// malformed token from one sealed under another key. A valid read-role
// token on the ingest path is 403: the token is genuine but grants the
// wrong capability.
//
// [Metrics] exports Prometheus collectors on a private registry. It is
// also the [session.Observer] for every session and the connection
// count observer for the registry.
package relay
