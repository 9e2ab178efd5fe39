// Package proxytable implements the per-connection weak cache of locally
// held proxies that represent remote objects. No example in this corpus
// wires a GC-integrated cache; this package reaches for the standard
// library's weak pointers and cleanup hooks because no third-party
// package in the corpus offers that facility and the runtime guarantee
// (finalization ordering tied to the garbage collector) is not one a
// userland library can provide.
package proxytable

import (
	"runtime"
	"sync"
	"weak"
)

// Table coalesces repeated lookups of the same Name onto one *P value and
// enqueues a Name on releases when the last external reference to its
// proxy becomes unreachable.
//
// The weak pointer tracks the exact *P the caller is handed back by
// GetOrCreate, not an intermediate box: nothing in the table holds a
// strong reference to it, so the cleanup fires precisely when the
// caller's own reference (and any it shared) is dropped, never before.
type Table[P any] struct {
	mu      sync.Mutex
	entries map[string]weak.Pointer[P]

	releases chan string
}

// New creates an empty Table. releaseBuffer sizes the channel that
// finalized Names are queued onto; a drain loop (run by the caller) reads
// from Releases() and writes Release(name) to the peer.
func New[P any](releaseBuffer int) *Table[P] {
	return &Table[P]{
		entries:  make(map[string]weak.Pointer[P]),
		releases: make(chan string, releaseBuffer),
	}
}

// Releases returns the channel that finalized Names are enqueued on.
func (t *Table[P]) Releases() <-chan string {
	return t.releases
}

// Get returns the live proxy cached for name, if its weak pointer has not
// yet been collected.
func (t *Table[P]) Get(name string) (*P, bool) {
	t.mu.Lock()
	wp, ok := t.entries[name]
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	p := wp.Value()
	if p == nil {
		return nil, false
	}
	return p, true
}

// GetOrCreate returns the cached proxy for name if still live, or calls
// create to build a fresh one, registers a cleanup that enqueues a
// Release for name when it becomes unreachable, and caches it.
//
// A race between this call and a pending finalization of the same Name is
// tolerated: either the still-live proxy is returned, or a new one is
// created and the stale finalizer is left free to enqueue a premature
// Release, which the peer ignores for unknown or Explicit Names.
func (t *Table[P]) GetOrCreate(name string, create func() *P) *P {
	if p, ok := t.Get(name); ok {
		return p
	}

	p := create()
	wp := weak.Make(p)

	t.mu.Lock()
	t.entries[name] = wp
	t.mu.Unlock()

	runtime.AddCleanup(p, t.onFinalized, name)
	return p
}

func (t *Table[P]) onFinalized(name string) {
	t.mu.Lock()
	wp, ok := t.entries[name]
	if ok && wp.Value() == nil {
		delete(t.entries, name)
	}
	t.mu.Unlock()

	select {
	case t.releases <- name:
	default:
		// Release queue is full and draining has stalled; drop rather
		// than block inside a cleanup callback.
	}
}

// Clear drops every cached entry without enqueueing Releases, used when
// the owning connection is tearing down and the peer is no longer
// listening.
func (t *Table[P]) Clear() {
	t.mu.Lock()
	t.entries = make(map[string]weak.Pointer[P])
	t.mu.Unlock()
	for {
		select {
		case <-t.releases:
		default:
			return
		}
	}
}
