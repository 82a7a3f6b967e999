// Package sdlhost runs the overlay on an SDL window. The window surface is
// the screen the overlay is drawn on, and key transitions are delivered back
// into the SDL event queue.
package sdlhost

import (
	"fmt"
	"image"

	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/image/draw"

	"github.com/phinze/vkeybd/internal/host"
	"github.com/phinze/vkeybd/internal/scancode"
)

// injectedWindowID tags key events pushed by Deliver.
const injectedWindowID = ^uint32(0)

// Host is an SDL window implementing host.Host and device.Keyboard.
// Except for Deliver, its methods must be called from the thread that
// created it.
type Host struct {
	window    *sdl.Window
	joysticks []*sdl.Joystick
}

// New initializes SDL and opens a w×h window.
func New(title string, w, h int) (*Host, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_JOYSTICK); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %w", err)
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(w), int32(h), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	hst := &Host{window: window}
	for i := 0; i < sdl.NumJoysticks(); i++ {
		if j := sdl.JoystickOpen(i); j != nil {
			hst.joysticks = append(hst.joysticks, j)
		}
	}
	return hst, nil
}

// Close releases the window and shuts SDL down.
func (h *Host) Close() error {
	for _, j := range h.joysticks {
		j.Close()
	}
	err := h.window.Destroy()
	sdl.Quit()
	return err
}

// Fill draws img over the whole window, scaled to fit.
func (h *Host) Fill(img image.Image) error {
	surface, err := h.window.GetSurface()
	if err != nil {
		return fmt.Errorf("failed to get window surface: %w", err)
	}
	if err := surface.Lock(); err != nil {
		return fmt.Errorf("failed to lock surface: %w", err)
	}
	draw.CatmullRom.Scale(surface, surface.Bounds(), img, img.Bounds(), draw.Src, nil)
	surface.Unlock()
	return h.window.UpdateSurface()
}

func (h *Host) ScreenSize() (int, int) {
	surface, err := h.window.GetSurface()
	if err != nil {
		return 0, 0
	}
	return int(surface.W), int(surface.H)
}

// Mapping returns the identity: events and drawing both use window
// surface coordinates.
func (h *Host) Mapping() host.Mapping {
	return host.Identity
}

func (h *Host) Snapshot(r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(r)
	surface, err := h.window.GetSurface()
	if err != nil {
		return out
	}
	if err := surface.Lock(); err != nil {
		return out
	}
	defer surface.Unlock()
	draw.Draw(out, r, surface, r.Min, draw.Src)
	return out
}

func (h *Host) Present(img image.Image, r image.Rectangle) error {
	surface, err := h.window.GetSurface()
	if err != nil {
		return fmt.Errorf("failed to get window surface: %w", err)
	}
	if err := surface.Lock(); err != nil {
		return fmt.Errorf("failed to lock surface: %w", err)
	}
	draw.Draw(surface, r, img, r.Min, draw.Src)
	surface.Unlock()

	rect := sdl.Rect{X: int32(r.Min.X), Y: int32(r.Min.Y), W: int32(r.Dx()), H: int32(r.Dy())}
	if err := h.window.UpdateSurfaceRects([]sdl.Rect{rect}); err != nil {
		return fmt.Errorf("failed to update window: %w", err)
	}
	return nil
}

// PollEvent returns the next event the overlay or coordinator cares about,
// skipping the rest.
func (h *Host) PollEvent() (host.Event, bool) {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		if ev, ok := translate(e); ok {
			return ev, true
		}
	}
	return host.Event{}, false
}

func translate(e sdl.Event) (host.Event, bool) {
	switch ev := e.(type) {
	case *sdl.QuitEvent:
		return host.Event{Kind: host.EventQuit}, true

	case *sdl.MouseButtonEvent:
		if ev.Type != sdl.MOUSEBUTTONUP {
			return host.Event{}, false
		}
		return host.Event{
			Kind:   host.EventPointerUp,
			X:      int(ev.X),
			Y:      int(ev.Y),
			Button: int(ev.Button),
		}, true

	case *sdl.JoyButtonEvent:
		if ev.Type != sdl.JOYBUTTONUP {
			return host.Event{}, false
		}
		return host.Event{
			Kind:   host.EventJoyButtonUp,
			Device: int(ev.Which),
			Button: int(ev.Button),
		}, true

	case *sdl.JoyAxisEvent:
		return host.Event{
			Kind:   host.EventJoyAxis,
			Device: int(ev.Which),
			Axis:   int(ev.Axis),
			Value:  ev.Value,
		}, true

	case *sdl.KeyboardEvent:
		kind := host.EventKeyDown
		if ev.Type == sdl.KEYUP {
			kind = host.EventKeyUp
		}
		return host.Event{
			Kind:     kind,
			Key:      int(ev.Keysym.Scancode),
			Injected: ev.WindowID == injectedWindowID,
		}, true
	}
	return host.Event{}, false
}

func (h *Host) PointerPosition() image.Point {
	x, y, _ := sdl.GetMouseState()
	return image.Pt(int(x), int(y))
}

func (h *Host) WarpPointer(p image.Point) {
	h.window.WarpMouseInWindow(int32(p.X), int32(p.Y))
}

func (h *Host) ShowPointer(show bool) bool {
	prev, _ := sdl.ShowCursor(sdl.QUERY)
	state := sdl.DISABLE
	if show {
		state = sdl.ENABLE
	}
	sdl.ShowCursor(state)
	return prev == sdl.ENABLE
}

func (h *Host) JoystickEvents(enable bool) bool {
	prev := sdl.JoystickEventState(sdl.QUERY)
	state := sdl.IGNORE
	if enable {
		state = sdl.ENABLE
	}
	sdl.JoystickEventState(state)
	return prev == sdl.ENABLE
}

// Deliver pushes a synthetic key event onto the SDL queue. Scancodes are
// USB HID usages, which SDL uses unchanged.
func (h *Host) Deliver(code scancode.KeyCode, pressed bool) error {
	sc := sdl.Scancode(code)
	ev := &sdl.KeyboardEvent{
		Type:     sdl.KEYUP,
		WindowID: injectedWindowID,
		State:    sdl.RELEASED,
		Keysym: sdl.Keysym{
			Scancode: sc,
			Sym:      sdl.GetKeyFromScancode(sc),
		},
	}
	if pressed {
		ev.Type = sdl.KEYDOWN
		ev.State = sdl.PRESSED
	}
	if _, err := sdl.PushEvent(ev); err != nil {
		return fmt.Errorf("failed to push key event: %w", err)
	}
	return nil
}
