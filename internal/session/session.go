// Package session manages the overlay lifecycle: choosing and loading the
// keyboard for the current screen, showing it over the host surface while
// the dispatcher runs, and draining the buffered keys to the target keyboard
// at a steady rate.
package session

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/phinze/vkeybd/internal/asset"
	"github.com/phinze/vkeybd/internal/buffer"
	"github.com/phinze/vkeybd/internal/config"
	"github.com/phinze/vkeybd/internal/device"
	"github.com/phinze/vkeybd/internal/dispatch"
	"github.com/phinze/vkeybd/internal/host"
	"github.com/phinze/vkeybd/internal/layout"
	"github.com/phinze/vkeybd/internal/render"
)

// filePrefix starts the name of every keyboard image and definition file.
const filePrefix = "vkeybd_"

// Controller opens the overlay and drains its buffer.
type Controller struct {
	cfg    config.Config
	timing config.Timing
	kb     device.Keyboard
	buf    *buffer.Buffer

	// Loaded keyboard. Only touched by Open.
	class  int
	source *image.NRGBA
	layout *layout.Layout
	stale  atomic.Bool
	face   font.Face

	drainMu   sync.Mutex
	lastDrain time.Time

	now   func() time.Time
	sleep func(time.Duration)
	exit  func(code int)
}

// New creates a Controller delivering keys to kb.
func New(cfg config.Config, kb device.Keyboard) *Controller {
	return &Controller{
		cfg:    cfg,
		timing: cfg.Intervals(),
		kb:     kb,
		buf:    buffer.New(cfg.BufferCapacity),
		now:    time.Now,
		sleep:  time.Sleep,
		exit:   os.Exit,
	}
}

// Buffer returns the dispatch buffer.
func (c *Controller) Buffer() *buffer.Buffer {
	return c.buf
}

// Pending reports whether keys are waiting to be delivered.
func (c *Controller) Pending() bool {
	return !c.buf.IsEmpty()
}

// SizeClass returns the size-class of the loaded keyboard, or 0 if none is
// loaded.
func (c *Controller) SizeClass() int {
	if c.layout == nil {
		return 0
	}
	return c.class
}

// Open shows the overlay on h and runs it until the user commits or
// cancels. A keyboard that cannot be loaded is logged and the overlay is
// not shown; that is not an error.
func (c *Controller) Open(ctx context.Context, h host.Host) error {
	w, sh := h.ScreenSize()
	class := c.cfg.SizeClass(w)
	if err := c.ensureLoaded(class); err != nil {
		log.Printf("Failed to load keyboard for size %d: %v", class, err)
		return nil
	}

	size := c.source.Bounds().Size()
	origin := image.Pt((w-size.X)/2, sh-size.Y)
	placement := image.Rectangle{Min: origin, Max: origin.Add(size)}

	background := h.Snapshot(placement)
	r := render.NewWithFace(c.source, background, placement.Min, c.layout.Display, c.readoutFace())
	if err := h.Present(r.Canvas(), placement); err != nil {
		return fmt.Errorf("failed to show overlay: %w", err)
	}

	pointerWas := h.ShowPointer(true)
	joystickWas := h.JoystickEvents(true)
	c.buf.Clear()

	d := dispatch.New(dispatch.Options{
		Host:          h,
		Layout:        c.layout,
		Buffer:        c.buf,
		Renderer:      r,
		Placement:     placement,
		Timing:        c.timing,
		JoystickRatio: c.cfg.JoystickRatio,
		Now:           c.now,
		Sleep:         c.sleep,
		Exit:          c.exit,
	})
	err := d.Run(ctx)

	h.ShowPointer(pointerWas)
	h.JoystickEvents(joystickWas)
	if perr := h.Present(background, placement); perr != nil {
		log.Printf("Failed to restore screen: %v", perr)
	}
	return err
}

// DrainOne delivers the oldest buffered key if the flush interval has
// passed since the previous delivery. It reports whether keys are still
// pending afterwards. A failed delivery is logged and the key is dropped.
func (c *Controller) DrainOne() bool {
	c.drainMu.Lock()
	defer c.drainMu.Unlock()

	if c.buf.IsEmpty() {
		return false
	}
	now := c.now()
	if now.Sub(c.lastDrain) < c.timing.Flush {
		return true
	}

	if e, ok := c.buf.DrainOne(); ok {
		c.lastDrain = now
		if err := c.kb.Deliver(e.Code, e.Pressed); err != nil {
			log.Printf("Failed to deliver key %d: %v", e.Code, err)
		}
	}
	return !c.buf.IsEmpty()
}

// Watch marks the loaded keyboard stale whenever a keyboard file in the
// configuration directory changes, so the next Open reloads it. It blocks
// until ctx is done.
func (c *Controller) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", c.cfg.Dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(event.Name), filePrefix) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !c.stale.Swap(true) {
				log.Printf("Keyboard file %s changed, reloading on next open", filepath.Base(event.Name))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// ensureLoaded loads the keyboard for class unless it is already loaded and
// unchanged on disk.
func (c *Controller) ensureLoaded(class int) error {
	if c.layout != nil && c.class == class && !c.stale.Load() {
		return nil
	}
	c.stale.Store(false)

	// A failed load leaves nothing loaded so the next Open retries.
	c.source, c.layout = nil, nil

	base := filepath.Join(c.cfg.Dir, fmt.Sprintf("%s%d", filePrefix, class))
	img, l, err := loadKeyboard(base)
	if err != nil {
		return err
	}

	c.class = class
	c.source = img
	c.layout = l
	log.Printf("Loaded keyboard %s (%dx%d, %d keys)", filepath.Base(base), img.Bounds().Dx(), img.Bounds().Dy(), len(l.Keys))
	return nil
}

// readoutFace returns the configured readout font, loading it on first use.
func (c *Controller) readoutFace() font.Face {
	if c.face != nil {
		return c.face
	}

	c.face = basicfont.Face7x13
	if c.cfg.Font == "" {
		return c.face
	}
	path := c.cfg.Font
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.cfg.Dir, path)
	}
	face, err := render.LoadFace(path, c.cfg.FontSize)
	if err != nil {
		log.Printf("Failed to load readout font, using built-in: %v", err)
		return c.face
	}
	c.face = face
	return c.face
}

func loadKeyboard(base string) (*image.NRGBA, *layout.Layout, error) {
	path, err := asset.Find(base)
	if err != nil {
		return nil, nil, err
	}
	img, err := asset.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load keyboard image: %w", err)
	}
	l, err := layout.Load(base + ".def")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load keyboard definition: %w", err)
	}
	return img, l, nil
}
