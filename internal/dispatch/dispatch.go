// Package dispatch runs the overlay event loop: it turns pointer and joystick
// input into buffered key transitions and keeps the overlay feedback current.
package dispatch

import (
	"context"
	"image"
	"log"
	"os"
	"time"

	"github.com/phinze/vkeybd/internal/buffer"
	"github.com/phinze/vkeybd/internal/config"
	"github.com/phinze/vkeybd/internal/host"
	"github.com/phinze/vkeybd/internal/layout"
	"github.com/phinze/vkeybd/internal/render"
	"github.com/phinze/vkeybd/internal/scancode"
)

// State is the loop state.
type State int

const (
	Running State = iota
	Exiting
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Exiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Options configures a Dispatcher. Host, Layout, Buffer and Renderer are
// required.
type Options struct {
	Host     host.Host
	Layout   *layout.Layout
	Buffer   *buffer.Buffer
	Renderer *render.Renderer
	// Placement is the overlay rectangle in surface coordinates.
	Placement image.Rectangle

	Timing        config.Timing
	JoystickRatio int

	// Now, Sleep and Exit default to time.Now, time.Sleep and os.Exit.
	Now   func() time.Time
	Sleep func(time.Duration)
	Exit  func(code int)
}

// Dispatcher owns one overlay session's input handling.
type Dispatcher struct {
	host      host.Host
	layout    *layout.Layout
	buf       *buffer.Buffer
	renderer  *render.Renderer
	placement image.Rectangle

	timing        config.Timing
	joystickRatio int

	now   func() time.Time
	sleep func(time.Duration)
	exit  func(code int)

	state State

	// Joystick pointer velocity in surface pixels per tick.
	velocity image.Point

	cursorVisible bool
	lastBlink     time.Time
	lastJoystick  time.Time
}

// New creates a Dispatcher in the Running state.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		host:          opts.Host,
		layout:        opts.Layout,
		buf:           opts.Buffer,
		renderer:      opts.Renderer,
		placement:     opts.Placement,
		timing:        opts.Timing,
		joystickRatio: opts.JoystickRatio,
		now:           opts.Now,
		sleep:         opts.Sleep,
		exit:          opts.Exit,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if d.exit == nil {
		d.exit = os.Exit
	}
	if d.joystickRatio <= 0 {
		d.joystickRatio = config.Default().JoystickRatio
	}

	start := d.now()
	d.lastBlink = start
	d.lastJoystick = start
	return d
}

// State returns the current loop state.
func (d *Dispatcher) State() State {
	return d.state
}

// Run processes input until the overlay is committed or cancelled, or ctx is
// done. Cancelling ctx discards the buffered keys like CANCEL does and
// returns ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) error {
	for d.state == Running {
		select {
		case <-ctx.Done():
			d.buf.Clear()
			d.state = Exiting
			return ctx.Err()
		default:
		}

		for d.state == Running {
			ev, ok := d.host.PollEvent()
			if !ok {
				break
			}
			d.HandleEvent(ev)
		}
		if d.state != Running {
			break
		}

		now := d.now()
		if now.Sub(d.lastJoystick) >= d.timing.Joystick {
			d.lastJoystick = now
			d.moveJoystick()
		}
		if now.Sub(d.lastBlink) >= d.timing.CursorBlink {
			d.lastBlink = now
			d.cursorVisible = !d.cursorVisible
			d.renderer.BlinkCursor(d.cursorVisible)
			d.present()
		}

		d.sleep(d.timing.Poll)
	}
	return nil
}

// HandleEvent routes one raw input event.
func (d *Dispatcher) HandleEvent(ev host.Event) {
	switch ev.Kind {
	case host.EventQuit:
		d.exit(1)
		// Only reached when exit is stubbed.
		d.state = Exiting

	case host.EventPointerUp:
		d.HandleClick(image.Pt(ev.X, ev.Y), ev.Button != host.ButtonLeft)

	case host.EventJoyButtonUp:
		if ev.Device != 0 || ev.Button > 1 {
			return
		}
		d.HandleClick(d.host.PointerPosition(), ev.Button == 1)

	case host.EventJoyAxis:
		if ev.Device != 0 {
			return
		}
		w, _ := d.host.ScreenSize()
		speed := w / d.joystickRatio
		delta := int(ev.Value) * speed / host.AxisMax
		if ev.Axis == 0 {
			d.velocity.X = delta
		} else {
			d.velocity.Y = delta
		}
	}
}

// HandleClick activates the key under screen point p. A latching click
// toggles the key; a momentary click presses and releases it, or only
// releases it when it is held.
func (d *Dispatcher) HandleClick(p image.Point, latching bool) {
	local := d.host.Mapping().ToSurface(p).Sub(d.placement.Min)
	key, ok := d.layout.HitTest(local)
	if !ok {
		return
	}

	switch key.Name {
	case scancode.Commit:
		d.state = Exiting
		return
	case scancode.Cancel:
		d.buf.Clear()
		d.state = Exiting
		return
	}

	entry, ok := scancode.Lookup(key.Name)
	if !ok {
		return
	}
	held := d.buf.IsHeld(entry.Code)

	var glyphs render.Glyphs
	switch {
	case latching:
		if !d.buf.Push(entry.Code, !held) {
			return
		}
		if held {
			d.renderer.HighlightReleased(key)
			glyphs = render.GlyphsReleased
		} else {
			d.renderer.HighlightPressed(key)
			glyphs = render.GlyphsPressed
		}
	case held:
		if !d.buf.Push(entry.Code, false) {
			return
		}
		d.renderer.HighlightReleased(key)
		glyphs = render.GlyphsReleased
	default:
		if !d.buf.PushAll(
			buffer.Entry{Code: entry.Code, Pressed: true},
			buffer.Entry{Code: entry.Code, Pressed: false},
		) {
			return
		}
		glyphs = render.GlyphsDefault
	}

	d.renderer.BlinkCursor(false)
	d.cursorVisible = false
	d.renderer.AppendEvent(entry.Label, glyphs)
	d.present()
}

// moveJoystick warps the pointer by the current joystick velocity, keeping it
// on screen.
func (d *Dispatcher) moveJoystick() {
	if d.velocity == (image.Point{}) {
		return
	}

	m := d.host.Mapping()
	w, h := d.host.ScreenSize()
	p := d.host.PointerPosition()
	p.X = clamp(p.X+m.Scale(float64(d.velocity.X)), 0, w-1)
	p.Y = clamp(p.Y+m.Scale(float64(d.velocity.Y)), 0, h-1)
	d.host.WarpPointer(p)
}

func (d *Dispatcher) present() {
	if err := d.host.Present(d.renderer.Canvas(), d.placement); err != nil {
		log.Printf("Failed to present overlay: %v", err)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
