// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package access defines the 64-bit relay identity and the role bit that
// distinguishes the two halves of a minted token pair.
//
// Bit 0 of an [Identity] is the role flag: set for the read-capable
// half (the holder may open a receiving session), clear for the
// write-capable half (the holder may submit messages). Bits 1-63 are the
// base id. Both halves of a pair share the same base id, and the base id
// is what the connection registry is keyed on.
//
// The role bit is never trusted on its own. Identities only reach this
// package after lib/token has opened an authenticated envelope, so a
// bearer cannot flip the bit without invalidating the envelope.
//
// [Fingerprint] produces a log-safe stand-in for a base id. Raw base ids
// are never logged.
package access
