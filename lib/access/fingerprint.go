// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintKeySize is the BLAKE3 keyed-mode key length.
const fingerprintKeySize = 32

// fingerprintLength is the number of hex characters kept from the digest.
const fingerprintLength = 16

// fingerprintKey is drawn once per process. Fingerprints are stable for
// the lifetime of the process and unlinkable across restarts.
var fingerprintKey = func() []byte {
	key := make([]byte, fingerprintKeySize)
	if _, err := rand.Read(key); err != nil {
		panic("access: reading fingerprint key: " + err.Error())
	}
	return key
}()

// Fingerprint returns a short keyed digest of the base id of id,
// suitable for correlating log lines about the same pair without
// recording the id itself. Both halves of a pair share a fingerprint.
func Fingerprint(id Identity) string {
	return fingerprintWithKey(fingerprintKey, id)
}

func fingerprintWithKey(key []byte, id Identity) string {
	hasher, err := blake3.NewKeyed(key)
	if err != nil {
		// NewKeyed only fails on a key of the wrong length.
		panic("access: " + err.Error())
	}
	hasher.Write(id.Base().Bytes())
	return hex.EncodeToString(hasher.Sum(nil))[:fingerprintLength]
}
