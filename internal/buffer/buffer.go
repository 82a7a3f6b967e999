// Package buffer holds the keys clicked on the overlay until they are
// delivered, one at a time, to the emulated keyboard.
package buffer

import (
	"sync"

	"github.com/phinze/vkeybd/internal/scancode"
)

// DefaultCapacity is the number of entries a buffer holds when no capacity
// is configured.
const DefaultCapacity = 250

// Entry is one key transition waiting for delivery.
type Entry struct {
	Code    scancode.KeyCode
	Pressed bool
}

// Buffer is a bounded FIFO of key transitions. All methods are safe for
// concurrent use; each one runs under a single lock.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	head    int
	size    int
}

// New creates an empty buffer. A non-positive capacity selects
// DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{entries: make([]Entry, capacity)}
}

// Clear drops every pending entry.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}

// IsEmpty reports whether no entry is pending.
func (b *Buffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size == 0
}

// Len returns the number of pending entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.entries)
}

// HasCapacityFor reports whether n more entries fit.
func (b *Buffer) HasCapacityFor(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size+n <= len(b.entries)
}

// Push appends one entry. It returns false, leaving the buffer unchanged,
// when the buffer is full.
func (b *Buffer) Push(code scancode.KeyCode, pressed bool) bool {
	return b.PushAll(Entry{Code: code, Pressed: pressed})
}

// PushAll appends all entries in order, or none of them if they do not fit.
func (b *Buffer) PushAll(entries ...Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size+len(entries) > len(b.entries) {
		return false
	}
	for _, e := range entries {
		b.entries[b.index(b.size)] = e
		b.size++
	}
	return true
}

// IsHeld reports whether the most recent pending entry for code is a press.
// A key with no pending entry is not held.
func (b *Buffer) IsHeld(code scancode.KeyCode) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := b.size - 1; i >= 0; i-- {
		if e := b.entries[b.index(i)]; e.Code == code {
			return e.Pressed
		}
	}
	return false
}

// DrainOne removes and returns the oldest entry.
func (b *Buffer) DrainOne() (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		return Entry{}, false
	}
	e := b.entries[b.head]
	b.head = b.index(1)
	b.size--
	return e, true
}

// Snapshot returns the pending entries, oldest first.
func (b *Buffer) Snapshot() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, b.size)
	for i := range out {
		out[i] = b.entries[b.index(i)]
	}
	return out
}

// index maps a logical position to a slot. Callers hold mu.
func (b *Buffer) index(i int) int {
	return (b.head + i) % len(b.entries)
}
