// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	clock.Advance(5 * time.Second)
	if got, want := clock.Now(), epoch.Add(5*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockTicker(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for round := 1; round <= 3; round++ {
		clock.Advance(10 * time.Second)
		select {
		case tick := <-ticker.C:
			if want := epoch.Add(time.Duration(round) * 10 * time.Second); !tick.Equal(want) {
				t.Fatalf("tick %d = %v, want %v", round, tick, want)
			}
		default:
			t.Fatalf("ticker did not fire on round %d", round)
		}
	}
}

func TestFakeClockTickerDropsUnreadTicks(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	clock.Advance(5 * time.Second)
	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("ticker buffered more than one tick")
	default:
	}
}

func TestFakeClockTickerStop(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	ticker.Stop()

	clock.Advance(2 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
	if clock.Tickers() != 0 {
		t.Fatalf("Tickers() = %d with only a stopped ticker, want 0", clock.Tickers())
	}
}

func TestFakeClockTickerPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewTicker(0) did not panic")
		}
	}()
	Fake(epoch).NewTicker(0)
}

func TestFakeClockWaitForTickers(t *testing.T) {
	clock := Fake(epoch)
	registered := make(chan *Ticker)
	go func() { registered <- clock.NewTicker(time.Second) }()

	clock.WaitForTickers(1)
	clock.Advance(time.Second)
	ticker := <-registered
	defer ticker.Stop()
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker registered before WaitForTickers returned did not fire")
	}
}

func TestClockImplementations(t *testing.T) {
	var _ Clock = Fake(epoch)
	var _ Clock = Real()
}
