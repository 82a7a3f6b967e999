// Package scancode maps the key names used in keyboard definition files to
// display labels and platform-independent key codes.
package scancode

// KeyCode identifies a physical key by its USB HID usage ID. SDL scancodes use
// the same numbering, so codes can be handed to SDL unchanged.
type KeyCode uint16

// Reserved names in definition files.
const (
	// Display marks the rectangle used for the keystroke readout.
	Display = "DISPLAY"
	// Commit closes the overlay and keeps the buffered keys.
	Commit = "APPLY"
	// Cancel closes the overlay and discards the buffered keys.
	Cancel = "CANCEL"
)

// Key codes (USB HID usage page 0x07).
const (
	KeyUnknown KeyCode = 0

	KeyA KeyCode = 4 + iota - 1
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyReturn
	KeyEscape
	KeyBackspace
	KeyTab
	KeySpace
	KeyMinus
	KeyEquals
	KeyLeftBracket
	KeyRightBracket
	KeyBackslash
	keyNonUSHash
	KeySemicolon
	KeyApostrophe
	KeyGrave
	KeyComma
	KeyPeriod
	KeySlash
	KeyCapsLock
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyPrintScreen
	KeyScrollLock
	KeyPause
	KeyInsert
	KeyHome
	KeyPageUp
	KeyDelete
	KeyEnd
	KeyPageDown
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyNumLock
	KeyKPDivide
	KeyKPMultiply
	KeyKPMinus
	KeyKPPlus
	KeyKPEnter
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKP0
	KeyKPPeriod
)

// Modifier key codes.
const (
	KeyLCtrl  KeyCode = 224
	KeyLShift KeyCode = 225
	KeyLAlt   KeyCode = 226
	KeyRCtrl  KeyCode = 228
	KeyRShift KeyCode = 229
	KeyRAlt   KeyCode = 230
)

// Entry describes one dispatchable key.
type Entry struct {
	// Name is the key name used in definition files.
	Name string
	// Label is the text shown in the overlay readout.
	Label string
	// Code is sent to the keyboard device.
	Code KeyCode
}

var table = []Entry{
	{"esc", "Esc", KeyEscape},
	{"f1", "F1", KeyF1},
	{"f2", "F2", KeyF2},
	{"f3", "F3", KeyF3},
	{"f4", "F4", KeyF4},
	{"f5", "F5", KeyF5},
	{"f6", "F6", KeyF6},
	{"f7", "F7", KeyF7},
	{"f8", "F8", KeyF8},
	{"f9", "F9", KeyF9},
	{"f10", "F10", KeyF10},
	{"f11", "F11", KeyF11},
	{"f12", "F12", KeyF12},

	{"grave", "`", KeyGrave},
	{"1", "1", Key1},
	{"2", "2", Key2},
	{"3", "3", Key3},
	{"4", "4", Key4},
	{"5", "5", Key5},
	{"6", "6", Key6},
	{"7", "7", Key7},
	{"8", "8", Key8},
	{"9", "9", Key9},
	{"0", "0", Key0},
	{"minus", "-", KeyMinus},
	{"equals", "=", KeyEquals},
	{"backspace", "<--", KeyBackspace},

	{"tab", "Tab", KeyTab},
	{"q", "q", KeyQ},
	{"w", "w", KeyW},
	{"e", "e", KeyE},
	{"r", "r", KeyR},
	{"t", "t", KeyT},
	{"y", "y", KeyY},
	{"u", "u", KeyU},
	{"i", "i", KeyI},
	{"o", "o", KeyO},
	{"p", "p", KeyP},
	{"lbracket", "[", KeyLeftBracket},
	{"rbracket", "]", KeyRightBracket},
	{"backslash", "\\", KeyBackslash},

	{"capslock", "Cps.Lck.", KeyCapsLock},
	{"a", "a", KeyA},
	{"s", "s", KeyS},
	{"d", "d", KeyD},
	{"f", "f", KeyF},
	{"g", "g", KeyG},
	{"h", "h", KeyH},
	{"j", "j", KeyJ},
	{"k", "k", KeyK},
	{"l", "l", KeyL},
	{"semicolon", ";", KeySemicolon},
	{"quote", "'", KeyApostrophe},
	{"enter", "Enter", KeyReturn},

	{"lshift", "LShift", KeyLShift},
	{"z", "z", KeyZ},
	{"x", "x", KeyX},
	{"c", "c", KeyC},
	{"v", "v", KeyV},
	{"b", "b", KeyB},
	{"n", "n", KeyN},
	{"m", "m", KeyM},
	{"comma", ",", KeyComma},
	{"period", ".", KeyPeriod},
	{"slash", "/", KeySlash},
	{"rshift", "RShift", KeyRShift},

	{"lctrl", "LCtrl", KeyLCtrl},
	{"lalt", "LAlt", KeyLAlt},
	{"space", " ", KeySpace},
	{"ralt", "RAlt", KeyRAlt},
	{"rctrl", "RCtrl", KeyRCtrl},

	{"printscreen", "Prt.Scn.", KeyPrintScreen},
	{"scrolllock", "Scr.Lck.", KeyScrollLock},
	{"pause", "Pause", KeyPause},
	{"insert", "Ins", KeyInsert},
	{"home", "Home", KeyHome},
	{"pageup", "Pg.Up.", KeyPageUp},
	{"delete", "Del.", KeyDelete},
	{"end", "End", KeyEnd},
	{"pagedown", "Pg.Dw.", KeyPageDown},

	{"up", "Up", KeyUp},
	{"left", "Left", KeyLeft},
	{"down", "Down", KeyDown},
	{"right", "Right", KeyRight},

	{"numlock", "Num.Lck.", KeyNumLock},
	{"kp_divide", "KP/", KeyKPDivide},
	{"kp_multiply", "KP*", KeyKPMultiply},
	{"kp_minus", "KP-", KeyKPMinus},
	{"kp_7", "KP7", KeyKP7},
	{"kp_8", "KP8", KeyKP8},
	{"kp_9", "KP9", KeyKP9},
	{"kp_plus", "KP+", KeyKPPlus},
	{"kp_4", "KP4", KeyKP4},
	{"kp_5", "KP5", KeyKP5},
	{"kp_6", "KP6", KeyKP6},
	{"kp_1", "KP1", KeyKP1},
	{"kp_2", "KP2", KeyKP2},
	{"kp_3", "KP3", KeyKP3},
	{"kp_enter", "KP.Enter", KeyKPEnter},
	{"kp_0", "KP0", KeyKP0},
	{"kp_period", "KP.", KeyKPPeriod},
}

var byName = func() map[string]Entry {
	m := make(map[string]Entry, len(table))
	for _, e := range table {
		m[e.Name] = e
	}
	return m
}()

// Lookup returns the entry for a definition-file key name. Matching is exact
// and case-sensitive; reserved names are never found.
func Lookup(name string) (Entry, bool) {
	e, ok := byName[name]
	return e, ok
}

// Entries returns a copy of the table in definition order.
func Entries() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}

// IsReserved reports whether name is one of the control names.
func IsReserved(name string) bool {
	return name == Display || name == Commit || name == Cancel
}
