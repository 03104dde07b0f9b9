// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker

	// registered is broadcast whenever a ticker is created.
	registered *sync.Cond
}

type fakeTicker struct {
	next   time.Time
	period time.Duration
	c      chan time.Time
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{now: initial}
	clock.registered = sync.NewCond(&clock.mu)
	return clock
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker returns a Ticker whose first tick is due one period from
// the current fake time.
func (c *FakeClock) NewTicker(period time.Duration) *Ticker {
	if period <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ticker := &fakeTicker{
		next:   c.now.Add(period),
		period: period,
		c:      make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, ticker)
	c.registered.Broadcast()

	return &Ticker{C: ticker.c, stopFunc: func() { c.stop(ticker) }}
}

func (c *FakeClock) stop(ticker *fakeTicker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickers = slices.DeleteFunc(c.tickers, func(t *fakeTicker) bool { return t == ticker })
}

// Advance moves time forward by d. Each ticker is offered one tick,
// stamped with the new time, for every period that elapsed; ticks
// that find the channel full are dropped, as with time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, ticker := range c.tickers {
		for !ticker.next.After(c.now) {
			select {
			case ticker.c <- c.now:
			default:
			}
			ticker.next = ticker.next.Add(ticker.period)
		}
	}
}

// WaitForTickers blocks until at least n tickers are running. Call it
// before Advance when the goroutine under test creates its own ticker.
func (c *FakeClock) WaitForTickers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.tickers) < n {
		c.registered.Wait()
	}
}

// Tickers returns the number of tickers that have not been stopped.
func (c *FakeClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}
