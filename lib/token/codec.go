// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/bureau-foundation/tokenrelay/lib/access"
)

const (
	// NonceSize is the GCM nonce length.
	NonceSize = 12

	// TagSize is the GCM authentication tag length.
	TagSize = 16

	// minSealedSize is the shortest decoded token that can possibly
	// authenticate. Anything shorter is rejected without decrypting.
	minSealedSize = NonceSize + TagSize
)

var (
	// ErrMalformedToken reports a token that is not valid base64, is too
	// short to hold a nonce and tag, or decrypts to a payload that is not
	// an identity.
	ErrMalformedToken = errors.New("malformed token")

	// ErrAuthenticationFailed reports a token whose GCM tag did not
	// verify: wrong key, altered bytes, or truncation.
	ErrAuthenticationFailed = errors.New("token authentication failed")
)

// encoding is the token text encoding: URL-safe, no padding, so tokens
// can be used directly as a path segment.
var encoding = base64.RawURLEncoding

// Pair is the result of minting: two tokens for one base id.
type Pair struct {
	// Read opens a receiving session.
	Read string

	// Write submits messages to the holder of Read.
	Write string
}

// Codec seals and opens tokens under one key. Safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a codec for key. The AES key schedule derived here
// lives on the Go heap for the life of the codec.
func NewCodec(key *Key) (*Codec, error) {
	block, err := aes.NewCipher(key.bytes())
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Mint draws a random base id and seals both of its roles. Each token
// gets its own nonce, so the two share no visible structure.
func (c *Codec) Mint() Pair {
	var raw [access.Size]byte
	rand.Read(raw[:])
	id, _ := access.FromBytes(raw[:])
	return Pair{
		Read:  c.Seal(id.AsRead()),
		Write: c.Seal(id.AsWrite()),
	}
}

// Seal encrypts id, role bit included, under a fresh random nonce.
func (c *Codec) Seal(id access.Identity) string {
	sealed := make([]byte, NonceSize, NonceSize+access.Size+TagSize)
	rand.Read(sealed)
	sealed = c.aead.Seal(sealed, sealed[:NonceSize], id.Bytes(), nil)
	return encoding.EncodeToString(sealed)
}

// Open decodes and authenticates a token and returns the identity it
// carries, role bit included. Interpreting the role is the caller's job.
func (c *Codec) Open(token string) (access.Identity, error) {
	data, err := encoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if len(data) < minSealedSize {
		return 0, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedToken, len(data), minSealedSize)
	}

	plaintext, err := c.aead.Open(nil, data[:NonceSize], data[NonceSize:], nil)
	if err != nil {
		return 0, ErrAuthenticationFailed
	}

	id, err := access.FromBytes(plaintext)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return id, nil
}
