// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for relay packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so individual tests
// never block forever on a session goroutine that failed to deliver.
// These are the only place in the test suite where real wall-clock
// timeouts are used; protocol timing goes through lib/clock.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
