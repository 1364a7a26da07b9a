// Package miner implements the mining engine: workers, their kernels'
// dispatch loops, and the coordinator mediating between workers and the
// node connection.
package miner

import (
	"sync"

	"github.com/krist-network/krist-miner/internal/krist"
)

// TargetStatus is the outcome of a mailbox read.
type TargetStatus int

const (
	// TargetNew carries a target not yet seen by this reader.
	TargetNew TargetStatus = iota
	// TargetUnchanged means no fresh target since the last read.
	TargetUnchanged
	// TargetClosed means the mailbox was closed; the worker must stop.
	TargetClosed
)

// Mailbox is a single-slot, overwrite-on-write target channel. The
// coordinator writes, one worker reads; a write between two reads replaces
// any unread target, so the reader only ever observes the latest one.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	target krist.Target
	seq    uint64
	seen   uint64
	closed bool
}

// NewMailbox creates an empty open mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Post overwrites the mailbox slot with a fresh target.
func (m *Mailbox) Post(t krist.Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.target = t
	m.seq++
	m.cond.Broadcast()
}

// Close signals the reader to stop. Posting after Close is a no-op.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
}

// TryRead returns the latest target without blocking.
func (m *Mailbox) TryRead() (krist.Target, TargetStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return krist.Target{}, TargetClosed
	}
	if m.seq == m.seen {
		return m.target, TargetUnchanged
	}
	m.seen = m.seq
	return m.target, TargetNew
}

// Read blocks until a fresh target is posted or the mailbox is closed.
func (m *Mailbox) Read() (krist.Target, TargetStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.seq == m.seen && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return krist.Target{}, TargetClosed
	}
	m.seen = m.seq
	return m.target, TargetNew
}
