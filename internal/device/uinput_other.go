//go:build !linux

package device

import "github.com/phinze/vkeybd/internal/scancode"

// Uinput is only available on Linux.
type Uinput struct{}

// NewUinput always fails on this platform.
func NewUinput(name string) (*Uinput, error) {
	return nil, ErrUnsupported
}

func (u *Uinput) Deliver(code scancode.KeyCode, pressed bool) error {
	return ErrUnsupported
}

func (u *Uinput) Close() error {
	return nil
}
