// Package host defines what the overlay needs from the window system it is
// drawn on: screen geometry, region copies, the pointer, and raw input.
package host

import (
	"image"
	"math"
)

// EventKind identifies a raw input event.
type EventKind int

const (
	EventNone EventKind = iota
	// EventQuit is a request to terminate the application.
	EventQuit
	// EventPointerUp is a pointer button release at X,Y.
	EventPointerUp
	// EventJoyButtonUp is a joystick button release.
	EventJoyButtonUp
	// EventJoyAxis is a joystick axis motion.
	EventJoyAxis
	// EventKeyDown and EventKeyUp are keyboard transitions. The coordinator
	// opens the overlay from a hotkey release.
	EventKeyDown
	EventKeyUp
)

// Pointer buttons.
const (
	ButtonLeft   = 1
	ButtonMiddle = 2
	ButtonRight  = 3
)

// AxisMax is the magnitude of a fully deflected joystick axis.
const AxisMax = 32767

// Event is one raw input event.
type Event struct {
	Kind EventKind
	// X and Y are screen coordinates for pointer events.
	X, Y int
	// Button is the pointer or joystick button.
	Button int
	// Device is the joystick index.
	Device int
	// Axis and Value describe joystick motion.
	Axis  int
	Value int16
	// Key is the scancode of a key event.
	Key int
	// Injected marks key events delivered by the overlay itself.
	Injected bool
}

// Mapping converts screen coordinates to drawing-surface coordinates when the
// host scales its output.
type Mapping struct {
	Ratio  float64
	Offset image.Point
}

// Identity is the mapping of an unscaled host.
var Identity = Mapping{Ratio: 1}

// ToSurface maps a screen point to surface coordinates.
func (m Mapping) ToSurface(p image.Point) image.Point {
	r := m.ratio()
	return image.Pt(
		int(float64(p.X-m.Offset.X)/r),
		int(float64(p.Y-m.Offset.Y)/r),
	)
}

// Scale converts a surface distance to screen pixels.
func (m Mapping) Scale(d float64) int {
	return int(math.Round(d * m.ratio()))
}

func (m Mapping) ratio() float64 {
	if m.Ratio <= 0 {
		return 1
	}
	return m.Ratio
}

// Host is the window system the overlay draws on.
type Host interface {
	// ScreenSize returns the screen size in pixels.
	ScreenSize() (w, h int)
	// Mapping returns the screen to surface mapping.
	Mapping() Mapping
	// Snapshot copies a screen region. The result has bounds r.
	Snapshot(r image.Rectangle) *image.RGBA
	// Present copies img's pixels at r onto the screen and refreshes it.
	Present(img image.Image, r image.Rectangle) error
	// PollEvent returns the next pending event, if any.
	PollEvent() (Event, bool)
	// PointerPosition returns the pointer in screen coordinates.
	PointerPosition() image.Point
	// WarpPointer moves the pointer.
	WarpPointer(p image.Point)
	// ShowPointer sets pointer visibility and returns the previous state.
	ShowPointer(show bool) bool
	// JoystickEvents enables or disables joystick events and returns the
	// previous state.
	JoystickEvents(enable bool) bool
}
