// Package hosttest provides an in-memory host.Host for tests.
package hosttest

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/phinze/vkeybd/internal/host"
)

// Fake is a host.Host backed by an RGBA screen and a scripted event queue.
type Fake struct {
	mu sync.Mutex

	Screen  *image.RGBA
	Map     host.Mapping
	Pointer image.Point

	PointerVisible  bool
	JoystickEnabled bool

	// Presents counts Present calls.
	Presents int
	// Warps records every WarpPointer call.
	Warps []image.Point

	events []host.Event
	// OnIdle is called when the event queue is empty, letting a test feed
	// events from inside the loop.
	OnIdle func(f *Fake)
}

// New returns a fake with a w×h screen filled with bg.
func New(w, h int, bg color.Color) *Fake {
	screen := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(screen, screen.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &Fake{Screen: screen, Map: host.Identity}
}

// Queue appends events to be returned by PollEvent.
func (f *Fake) Queue(events ...host.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

// Click queues a pointer release at p.
func (f *Fake) Click(p image.Point, button int) {
	f.Queue(host.Event{Kind: host.EventPointerUp, X: p.X, Y: p.Y, Button: button})
}

func (f *Fake) ScreenSize() (int, int) {
	b := f.Screen.Bounds()
	return b.Dx(), b.Dy()
}

func (f *Fake) Mapping() host.Mapping { return f.Map }

func (f *Fake) Snapshot(r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(r)
	draw.Draw(out, r, f.Screen, r.Min, draw.Src)
	return out
}

func (f *Fake) Present(img image.Image, r image.Rectangle) error {
	draw.Draw(f.Screen, r, img, r.Min, draw.Src)
	f.Presents++
	return nil
}

func (f *Fake) PollEvent() (host.Event, bool) {
	f.mu.Lock()
	if len(f.events) == 0 {
		idle := f.OnIdle
		f.mu.Unlock()
		if idle != nil {
			idle(f)
		}
		return host.Event{}, false
	}
	ev := f.events[0]
	f.events = f.events[1:]
	f.mu.Unlock()
	return ev, true
}

func (f *Fake) PointerPosition() image.Point { return f.Pointer }

func (f *Fake) WarpPointer(p image.Point) {
	f.Pointer = p
	f.Warps = append(f.Warps, p)
}

func (f *Fake) ShowPointer(show bool) bool {
	prev := f.PointerVisible
	f.PointerVisible = show
	return prev
}

func (f *Fake) JoystickEvents(enable bool) bool {
	prev := f.JoystickEnabled
	f.JoystickEnabled = enable
	return prev
}
