// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package token seals relay identities into opaque bearer tokens and
// opens them again.
//
// A token is the unpadded URL-safe base64 encoding of
//
//	nonce (12 bytes) || AES-128-GCM ciphertext of the 8-byte identity || tag (16 bytes)
//
// sealed under the process-wide [Key]. Every seal draws a fresh random
// nonce. Because the role bit is inside the authenticated plaintext, a
// bearer cannot turn a write token into a read token (or the reverse)
// without the tag check failing.
//
// [Codec.Open] fails with [ErrMalformedToken] or [ErrAuthenticationFailed].
// Callers must not report which one occurred to the peer.
//
// The key is loaded from the credential directory by [LoadOrCreateKey].
// When no usable key file exists a fresh key is generated and written to
// the log; that log line is the only way to recover it. Restarting with a
// new key invalidates every token minted before.
package token
