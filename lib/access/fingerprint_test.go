// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"bytes"
	"testing"
)

func TestFingerprintSharedByPair(t *testing.T) {
	id := Identity(0xdeadbeefcafe)
	if Fingerprint(id.AsRead()) != Fingerprint(id.AsWrite()) {
		t.Fatal("both halves of a pair must share a fingerprint")
	}
	if got := len(Fingerprint(id)); got != fingerprintLength {
		t.Fatalf("fingerprint length = %d, want %d", got, fingerprintLength)
	}
}

func TestFingerprintDistinguishesBases(t *testing.T) {
	if Fingerprint(2) == Fingerprint(4) {
		t.Fatal("distinct base ids produced the same fingerprint")
	}
}

func TestFingerprintDependsOnKey(t *testing.T) {
	first := bytes.Repeat([]byte{1}, fingerprintKeySize)
	second := bytes.Repeat([]byte{2}, fingerprintKeySize)
	if fingerprintWithKey(first, 42) == fingerprintWithKey(second, 42) {
		t.Fatal("fingerprint did not change with the key")
	}
	if fingerprintWithKey(first, 42) != fingerprintWithKey(first, 42) {
		t.Fatal("fingerprint is not deterministic for a fixed key")
	}
}
