// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"encoding/binary"
	"fmt"
)

// Size is the encoded length of an Identity in bytes.
const Size = 8

// readBit is the role flag. Set: read-capable. Clear: write-capable.
const readBit Identity = 1

// Identity is a relay identity: a 63-bit base id plus the role bit.
type Identity uint64

// Base returns the identity with the role bit cleared. This is the
// registry key shared by both halves of a pair.
func (id Identity) Base() Identity { return id &^ readBit }

// IsRead reports whether the identity carries the read role.
func (id Identity) IsRead() bool { return id&readBit == readBit }

// IsWrite reports whether the identity carries the write role. Exactly
// one of IsRead and IsWrite is true for every identity.
func (id Identity) IsWrite() bool { return id&readBit == 0 }

// AsRead returns the read-role member of the pair id belongs to.
func (id Identity) AsRead() Identity { return id.Base() | readBit }

// AsWrite returns the write-role member of the pair id belongs to.
func (id Identity) AsWrite() Identity { return id.Base() }

// Role returns "read" or "write".
func (id Identity) Role() string {
	if id.IsRead() {
		return "read"
	}
	return "write"
}

// Bytes returns the big-endian encoding of id.
func (id Identity) Bytes() []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, Size), uint64(id))
}

// FromBytes decodes a big-endian identity. The input must be exactly
// Size bytes.
func FromBytes(data []byte) (Identity, error) {
	if len(data) != Size {
		return 0, fmt.Errorf("identity must be %d bytes, got %d", Size, len(data))
	}
	return Identity(binary.BigEndian.Uint64(data)), nil
}
