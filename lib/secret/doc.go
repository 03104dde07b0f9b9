// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for key material.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped.
//
// The relay keeps its process encryption key in a Buffer for the life of
// the process. [ReadFile] loads a credential file straight into protected
// memory so the encoded key never lingers on the heap.
//
// Depends on golang.org/x/sys/unix.
package secret
