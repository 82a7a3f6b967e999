// Package device delivers buffered key transitions to the keyboard the
// overlay types into.
package device

import (
	"errors"
	"sync"

	"github.com/phinze/vkeybd/internal/buffer"
	"github.com/phinze/vkeybd/internal/scancode"
)

// ErrUnsupported is returned when a device kind is not available on this
// platform.
var ErrUnsupported = errors.New("keyboard device not supported on this platform")

// Keyboard receives one key transition at a time.
type Keyboard interface {
	Deliver(code scancode.KeyCode, pressed bool) error
}

// KeyboardFunc adapts a function to the Keyboard interface.
type KeyboardFunc func(code scancode.KeyCode, pressed bool) error

func (f KeyboardFunc) Deliver(code scancode.KeyCode, pressed bool) error {
	return f(code, pressed)
}

// Recorder is a Keyboard that remembers every delivery.
type Recorder struct {
	mu      sync.Mutex
	entries []buffer.Entry

	// Err, when set, is returned from Deliver after recording.
	Err error
}

func (r *Recorder) Deliver(code scancode.KeyCode, pressed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, buffer.Entry{Code: code, Pressed: pressed})
	return r.Err
}

// Entries returns the deliveries so far, oldest first.
func (r *Recorder) Entries() []buffer.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]buffer.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
