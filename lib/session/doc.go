// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session runs the per-connection protocol for duplex relay
// connections.
//
// A connection opened with a read-role identity registers an [Outbox]
// under its base id and runs two loops:
//
//   - The write loop waits on whichever comes first: queued messages
//     in the outbox, or the keepalive ticker. Messages are written as
//     text frames in FIFO order. A tick writes a ping control frame whose
//     payload is the 8-byte big-endian count of whole seconds between
//     the tick and its dispatch, so the connection is never idle for
//     longer than the keepalive interval.
//   - The read loop consumes inbound frames until the transport fails
//     or closes.
//
// A connection opened with a write-role identity never registers. Its
// read loop forwards each inbound text frame to the registry entry for
// its own base id, with the same authorization as the HTTP ingest path:
// the caller already proved write access by presenting the write token.
//
// The read loop ending is the only trigger for teardown: the base id is
// unregistered (only if this session still owns the entry), the outbox
// is closed, the write loop is stopped, and the connection is closed. A
// write failure ends the write loop and closes the outbox: later routes
// report no recipient and drop the stale entry.
package session
