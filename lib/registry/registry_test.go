// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/bureau-foundation/tokenrelay/lib/access"
)

// recordingSink collects enqueued messages. Once closed it refuses them.
type recordingSink struct {
	mu       sync.Mutex
	messages []string
	closed   bool
}

func (s *recordingSink) Enqueue(message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.messages = append(s.messages, message)
	return true
}

func (s *recordingSink) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *recordingSink) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

const base access.Identity = 0x2468

func TestRouteDeliversInOrder(t *testing.T) {
	registry := New(nil)
	sink := &recordingSink{}
	registry.Register(base, sink)

	for _, message := range []string{"m1", "m2", "m3"} {
		if !registry.Route(base, message) {
			t.Fatalf("Route(%q) reported no recipient", message)
		}
	}

	if got := sink.received(); !slices.Equal(got, []string{"m1", "m2", "m3"}) {
		t.Fatalf("sink received %v, want [m1 m2 m3]", got)
	}
}

func TestRegisterIgnoresRoleBit(t *testing.T) {
	registry := New(nil)
	sink := &recordingSink{}
	registry.Register(base.AsRead(), sink)

	if !registry.Route(base.AsWrite(), "hello") {
		t.Fatal("write-role id did not reach the sink registered under the read-role id")
	}
}

func TestReplacementDeliversOnlyToNewest(t *testing.T) {
	registry := New(nil)
	first := &recordingSink{}
	second := &recordingSink{}

	registry.Register(base, first)
	registry.Route(base, "before")
	registry.Register(base, second)
	registry.Route(base, "after")

	if got := first.received(); !slices.Equal(got, []string{"before"}) {
		t.Errorf("replaced sink received %v, want [before]", got)
	}
	if got := second.received(); !slices.Equal(got, []string{"after"}) {
		t.Errorf("replacing sink received %v, want [after]", got)
	}
	if registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", registry.Len())
	}
}

func TestUnregisterSupersededSinkKeepsSuccessor(t *testing.T) {
	registry := New(nil)
	first := &recordingSink{}
	second := &recordingSink{}

	registry.Register(base, first)
	registry.Register(base, second)
	registry.Unregister(base, first)

	if !registry.Route(base, "still here") {
		t.Fatal("unregistering the superseded sink removed its successor")
	}
	if got := second.received(); !slices.Equal(got, []string{"still here"}) {
		t.Fatalf("successor received %v", got)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	registry := New(nil)
	sink := &recordingSink{}
	registry.Register(base, sink)

	registry.Unregister(base, sink)
	registry.Unregister(base, sink)

	if registry.Len() != 0 {
		t.Fatalf("Len() = %d after unregister, want 0", registry.Len())
	}
	if registry.Route(base, "gone") {
		t.Fatal("Route succeeded after unregister")
	}
}

func TestRouteWithoutRecipient(t *testing.T) {
	registry := New(nil)
	other := &recordingSink{}
	registry.Register(base+2, other)

	if registry.Route(base, "nobody") {
		t.Fatal("Route succeeded with nothing registered")
	}
	if registry.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", registry.Len())
	}
	if got := other.received(); len(got) != 0 {
		t.Fatalf("unrelated sink received %v", got)
	}
}

func TestRouteToClosedSinkUnregisters(t *testing.T) {
	registry := New(nil)
	sink := &recordingSink{}
	registry.Register(base, sink)
	sink.close()

	if registry.Route(base, "late") {
		t.Fatal("Route succeeded into a closed sink")
	}
	if registry.Len() != 0 {
		t.Fatalf("closed sink still registered: Len() = %d", registry.Len())
	}
}

func TestObserverSeesEntryCount(t *testing.T) {
	var counts []int
	registry := New(func(entries int) { counts = append(counts, entries) })

	first := &recordingSink{}
	registry.Register(base, first)
	registry.Register(base+2, &recordingSink{})
	registry.Unregister(base+4, first) // absent: no notification
	registry.Unregister(base, first)

	if !slices.Equal(counts, []int{1, 2, 1}) {
		t.Fatalf("observer saw %v, want [1 2 1]", counts)
	}
}

// Observer calls must arrive in mutation order so a gauge fed by them
// never settles on a stale count.
func TestObserverOrderUnderConcurrentChurn(t *testing.T) {
	var (
		mu     sync.Mutex
		counts []int
	)
	registry := New(func(entries int) {
		mu.Lock()
		counts = append(counts, entries)
		mu.Unlock()
	})

	const workers, rounds = 8, 200
	var group sync.WaitGroup
	for worker := range workers {
		group.Add(1)
		go func() {
			defer group.Done()
			id := access.Identity(worker * 2)
			for round := range rounds {
				sink := &recordingSink{}
				registry.Register(id, sink)
				if round%2 == 0 {
					registry.Unregister(id, sink)
				}
			}
			registry.Unregister(id, nil) // not the current sink: no-op
		}()
	}
	group.Wait()

	mu.Lock()
	defer mu.Unlock()
	previous := 0
	for index, count := range counts {
		if delta := count - previous; delta < -1 || delta > 1 {
			t.Fatalf("observation %d jumped from %d to %d", index, previous, count)
		}
		previous = count
	}
	if previous != registry.Len() {
		t.Fatalf("last observed count = %d, registry holds %d", previous, registry.Len())
	}
}

func TestConcurrentRouting(t *testing.T) {
	registry := New(nil)
	sinks := make([]*recordingSink, 8)
	for index := range sinks {
		sinks[index] = &recordingSink{}
		registry.Register(access.Identity(index*2), sinks[index])
	}

	const perSink = 200
	var group sync.WaitGroup
	for index := range sinks {
		group.Add(1)
		go func() {
			defer group.Done()
			for sequence := range perSink {
				registry.Route(access.Identity(index*2), fmt.Sprint(sequence))
			}
		}()
	}
	group.Wait()

	for index, sink := range sinks {
		got := sink.received()
		if len(got) != perSink {
			t.Fatalf("sink %d received %d messages, want %d", index, len(got), perSink)
		}
		for sequence, message := range got {
			if message != fmt.Sprint(sequence) {
				t.Fatalf("sink %d message %d = %q, out of order", index, sequence, message)
			}
		}
	}
}
