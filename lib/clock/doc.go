// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that the
// session keepalive can be tested without waiting on the wall clock.
//
// Production code calls Real(). Tests call Fake() and move time with
// Advance:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go session.Run(ctx, conn, id) // registers a keepalive ticker
//	c.WaitForTickers(1)
//	c.Advance(10 * time.Second)   // fires the tick deterministically
//
// WaitForTickers blocks until the goroutine under test has registered its
// ticker, which removes the race between registration and
// Advance.
package clock
