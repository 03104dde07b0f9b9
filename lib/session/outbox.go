// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "sync"

// Outbox is the unbounded FIFO between the registry and one session's
// write loop. Any number of goroutines may Enqueue; exactly one (the
// write loop) consumes via Ready and Drain. It implements registry.Sink.
type Outbox struct {
	mu      sync.Mutex
	pending []string
	closed  bool

	// ready has capacity 1 and holds a token whenever pending may be
	// non-empty.
	ready chan struct{}
}

// NewOutbox creates an empty, open outbox.
func NewOutbox() *Outbox {
	return &Outbox{ready: make(chan struct{}, 1)}
}

// Enqueue appends message. Returns false once the outbox is closed.
func (o *Outbox) Enqueue(message string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.pending = append(o.pending, message)
	select {
	case o.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready returns a channel that receives when messages may be waiting.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

// Drain removes and returns every pending message in enqueue order.
func (o *Outbox) Drain() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	drained := o.pending
	o.pending = nil
	return drained
}

// Len returns the number of pending messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Close refuses further messages and discards any still pending.
// Idempotent.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.pending = nil
}
