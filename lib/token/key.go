// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/bureau-foundation/tokenrelay/lib/secret"
)

// KeySize is the AES-128 key length in bytes.
const KeySize = 16

// Key is the process encryption key, held in mlocked memory outside the
// Go heap. The caller must call Close when the key is no longer needed.
type Key struct {
	buffer *secret.Buffer
}

// GenerateKey draws a fresh random key.
func GenerateKey() (*Key, error) {
	material := make([]byte, KeySize)
	rand.Read(material)
	return KeyFromBytes(material)
}

// KeyFromBytes builds a key from the first KeySize bytes of material.
// Longer material is truncated; shorter material is rejected. material
// is zeroed in either case.
func KeyFromBytes(material []byte) (*Key, error) {
	defer secret.Zero(material)
	if len(material) < KeySize {
		return nil, fmt.Errorf("key material has %d bytes, need at least %d", len(material), KeySize)
	}
	buffer, err := secret.NewFromBytes(material[:KeySize])
	if err != nil {
		return nil, fmt.Errorf("protecting key: %w", err)
	}
	return &Key{buffer: buffer}, nil
}

// Encode returns the key as padded URL-safe base64, the format read
// back from the ENCRYPTION_KEY credential file.
func (k *Key) Encode() string {
	return base64.URLEncoding.EncodeToString(k.buffer.Bytes())
}

// Close zeroes and releases the key memory. Idempotent.
func (k *Key) Close() error {
	return k.buffer.Close()
}

func (k *Key) bytes() []byte {
	return k.buffer.Bytes()
}
