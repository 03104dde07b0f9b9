// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry maps base ids to the outbound queue of the one live
// receiving session for that id.
//
// The registry is the only mutable state shared between sessions. One
// RWMutex guards the map: routing takes the read lock, registration and
// removal take the write lock. The lock is never held across I/O; a
// [Sink] enqueue is expected to be a non-blocking append.
//
// At most one sink is registered per base id. Registering a second sink
// for the same id replaces the first without notifying it. Messages
// routed to one base id reach its sink in the order Route was called.
package registry

import (
	"sync"

	"github.com/bureau-foundation/tokenrelay/lib/access"
)

// Sink is the registry's handle on a session's outbound queue.
type Sink interface {
	// Enqueue appends message to the queue without blocking. It
	// returns false if the queue has been closed and the message was
	// not accepted.
	Enqueue(message string) bool
}

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	sinks map[access.Identity]Sink

	// observe, if set, is called with the entry count after every
	// mutation while the write lock is still held, so successive
	// calls arrive in mutation order. It must not call back into the
	// registry.
	observe func(entries int)
}

// New creates an empty registry. observe may be nil.
func New(observe func(entries int)) *Registry {
	return &Registry{
		sinks:   make(map[access.Identity]Sink),
		observe: observe,
	}
}

// Register installs sink for base, replacing any existing entry. The
// role bit of base is ignored.
func (r *Registry) Register(base access.Identity, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[base.Base()] = sink
	r.notifyLocked()
}

// Unregister removes the entry for base if it is still sink. When a
// newer session has already replaced the entry this is a no-op, so a
// superseded session's teardown never evicts its successor.
func (r *Registry) Unregister(base access.Identity, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sinks[base.Base()]; ok && current == sink {
		delete(r.sinks, base.Base())
		r.notifyLocked()
	}
}

// Route enqueues message on the sink registered for base. It returns
// false if nothing is registered or the registered sink has closed; a
// closed sink is removed on the way out.
func (r *Registry) Route(base access.Identity, message string) bool {
	r.mu.RLock()
	sink, ok := r.sinks[base.Base()]
	delivered := ok && sink.Enqueue(message)
	r.mu.RUnlock()

	if ok && !delivered {
		r.Unregister(base, sink)
	}
	return delivered
}

// Len returns the number of registered sinks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

func (r *Registry) notifyLocked() {
	if r.observe != nil {
		r.observe(len(r.sinks))
	}
}
