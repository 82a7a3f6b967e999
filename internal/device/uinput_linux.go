//go:build linux

package device

import (
	"errors"
	"fmt"

	"github.com/holoplot/go-evdev"

	"github.com/phinze/vkeybd/internal/scancode"
)

// Uinput is a virtual keyboard created through /dev/uinput.
type Uinput struct {
	dev *evdev.InputDevice
}

// NewUinput creates a virtual keyboard able to emit every key in the
// scancode table.
func NewUinput(name string) (*Uinput, error) {
	keys := make([]evdev.EvCode, 0, len(evdevCodes))
	for _, e := range scancode.Entries() {
		if code, ok := evdevCodes[e.Code]; ok {
			keys = append(keys, code)
		}
	}

	dev, err := evdev.CreateDevice(name, evdev.InputID{
		BusType: 0x03,
		Vendor:  0x4711,
		Product: 0x0817,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: keys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create uinput device: %w", err)
	}
	return &Uinput{dev: dev}, nil
}

// Deliver writes the key transition followed by a sync report.
func (u *Uinput) Deliver(code scancode.KeyCode, pressed bool) error {
	key, ok := evdevCodes[code]
	if !ok {
		return fmt.Errorf("no evdev code for key %d", code)
	}

	var value int32
	if pressed {
		value = 1
	}
	err := u.dev.WriteOne(&evdev.InputEvent{
		Type:  evdev.EV_KEY,
		Code:  key,
		Value: value,
	})
	return errors.Join(err, u.dev.WriteOne(&evdev.InputEvent{
		Type: evdev.EV_SYN,
		Code: evdev.SYN_REPORT,
	}))
}

// Close destroys the virtual device.
func (u *Uinput) Close() error {
	return u.dev.Close()
}

var evdevCodes = map[scancode.KeyCode]evdev.EvCode{
	scancode.KeyA: evdev.KEY_A,
	scancode.KeyB: evdev.KEY_B,
	scancode.KeyC: evdev.KEY_C,
	scancode.KeyD: evdev.KEY_D,
	scancode.KeyE: evdev.KEY_E,
	scancode.KeyF: evdev.KEY_F,
	scancode.KeyG: evdev.KEY_G,
	scancode.KeyH: evdev.KEY_H,
	scancode.KeyI: evdev.KEY_I,
	scancode.KeyJ: evdev.KEY_J,
	scancode.KeyK: evdev.KEY_K,
	scancode.KeyL: evdev.KEY_L,
	scancode.KeyM: evdev.KEY_M,
	scancode.KeyN: evdev.KEY_N,
	scancode.KeyO: evdev.KEY_O,
	scancode.KeyP: evdev.KEY_P,
	scancode.KeyQ: evdev.KEY_Q,
	scancode.KeyR: evdev.KEY_R,
	scancode.KeyS: evdev.KEY_S,
	scancode.KeyT: evdev.KEY_T,
	scancode.KeyU: evdev.KEY_U,
	scancode.KeyV: evdev.KEY_V,
	scancode.KeyW: evdev.KEY_W,
	scancode.KeyX: evdev.KEY_X,
	scancode.KeyY: evdev.KEY_Y,
	scancode.KeyZ: evdev.KEY_Z,

	scancode.Key1: evdev.KEY_1,
	scancode.Key2: evdev.KEY_2,
	scancode.Key3: evdev.KEY_3,
	scancode.Key4: evdev.KEY_4,
	scancode.Key5: evdev.KEY_5,
	scancode.Key6: evdev.KEY_6,
	scancode.Key7: evdev.KEY_7,
	scancode.Key8: evdev.KEY_8,
	scancode.Key9: evdev.KEY_9,
	scancode.Key0: evdev.KEY_0,

	scancode.KeyReturn:       evdev.KEY_ENTER,
	scancode.KeyEscape:       evdev.KEY_ESC,
	scancode.KeyBackspace:    evdev.KEY_BACKSPACE,
	scancode.KeyTab:          evdev.KEY_TAB,
	scancode.KeySpace:        evdev.KEY_SPACE,
	scancode.KeyMinus:        evdev.KEY_MINUS,
	scancode.KeyEquals:       evdev.KEY_EQUAL,
	scancode.KeyLeftBracket:  evdev.KEY_LEFTBRACE,
	scancode.KeyRightBracket: evdev.KEY_RIGHTBRACE,
	scancode.KeyBackslash:    evdev.KEY_BACKSLASH,
	scancode.KeySemicolon:    evdev.KEY_SEMICOLON,
	scancode.KeyApostrophe:   evdev.KEY_APOSTROPHE,
	scancode.KeyGrave:        evdev.KEY_GRAVE,
	scancode.KeyComma:        evdev.KEY_COMMA,
	scancode.KeyPeriod:       evdev.KEY_DOT,
	scancode.KeySlash:        evdev.KEY_SLASH,
	scancode.KeyCapsLock:     evdev.KEY_CAPSLOCK,

	scancode.KeyF1:  evdev.KEY_F1,
	scancode.KeyF2:  evdev.KEY_F2,
	scancode.KeyF3:  evdev.KEY_F3,
	scancode.KeyF4:  evdev.KEY_F4,
	scancode.KeyF5:  evdev.KEY_F5,
	scancode.KeyF6:  evdev.KEY_F6,
	scancode.KeyF7:  evdev.KEY_F7,
	scancode.KeyF8:  evdev.KEY_F8,
	scancode.KeyF9:  evdev.KEY_F9,
	scancode.KeyF10: evdev.KEY_F10,
	scancode.KeyF11: evdev.KEY_F11,
	scancode.KeyF12: evdev.KEY_F12,

	scancode.KeyPrintScreen: evdev.KEY_SYSRQ,
	scancode.KeyScrollLock:  evdev.KEY_SCROLLLOCK,
	scancode.KeyPause:       evdev.KEY_PAUSE,
	scancode.KeyInsert:      evdev.KEY_INSERT,
	scancode.KeyHome:        evdev.KEY_HOME,
	scancode.KeyPageUp:      evdev.KEY_PAGEUP,
	scancode.KeyDelete:      evdev.KEY_DELETE,
	scancode.KeyEnd:         evdev.KEY_END,
	scancode.KeyPageDown:    evdev.KEY_PAGEDOWN,
	scancode.KeyRight:       evdev.KEY_RIGHT,
	scancode.KeyLeft:        evdev.KEY_LEFT,
	scancode.KeyDown:        evdev.KEY_DOWN,
	scancode.KeyUp:          evdev.KEY_UP,

	scancode.KeyNumLock:    evdev.KEY_NUMLOCK,
	scancode.KeyKPDivide:   evdev.KEY_KPSLASH,
	scancode.KeyKPMultiply: evdev.KEY_KPASTERISK,
	scancode.KeyKPMinus:    evdev.KEY_KPMINUS,
	scancode.KeyKPPlus:     evdev.KEY_KPPLUS,
	scancode.KeyKPEnter:    evdev.KEY_KPENTER,
	scancode.KeyKP1:        evdev.KEY_KP1,
	scancode.KeyKP2:        evdev.KEY_KP2,
	scancode.KeyKP3:        evdev.KEY_KP3,
	scancode.KeyKP4:        evdev.KEY_KP4,
	scancode.KeyKP5:        evdev.KEY_KP5,
	scancode.KeyKP6:        evdev.KEY_KP6,
	scancode.KeyKP7:        evdev.KEY_KP7,
	scancode.KeyKP8:        evdev.KEY_KP8,
	scancode.KeyKP9:        evdev.KEY_KP9,
	scancode.KeyKP0:        evdev.KEY_KP0,
	scancode.KeyKPPeriod:   evdev.KEY_KPDOT,

	scancode.KeyLCtrl:  evdev.KEY_LEFTCTRL,
	scancode.KeyLShift: evdev.KEY_LEFTSHIFT,
	scancode.KeyLAlt:   evdev.KEY_LEFTALT,
	scancode.KeyRCtrl:  evdev.KEY_RIGHTCTRL,
	scancode.KeyRShift: evdev.KEY_RIGHTSHIFT,
	scancode.KeyRAlt:   evdev.KEY_RIGHTALT,
}
