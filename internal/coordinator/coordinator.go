// Package coordinator runs the main loop: it watches host input for the
// overlay hotkey, opens the overlay, and drains typed keys to the device.
package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phinze/vkeybd/internal/host"
	"github.com/phinze/vkeybd/internal/session"
)

// Options configures a Coordinator.
type Options struct {
	// Hotkey is the scancode whose release opens the overlay.
	Hotkey int
	// Interval is the main loop period.
	Interval time.Duration
	// Watch reloads keyboard files when they change on disk.
	Watch bool
	// Debug logs every key the overlay delivers back to the host.
	Debug bool
}

// Coordinator owns the host and the session controller.
type Coordinator struct {
	host host.Host
	ctrl *session.Controller
	opts Options

	openRequested atomic.Bool

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Coordinator for the given host and controller.
func New(h host.Host, ctrl *session.Controller, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Millisecond
	}
	return &Coordinator{
		host: h,
		ctrl: ctrl,
		opts: opts,
	}
}

// RequestOpen opens the overlay on the next loop iteration. Safe to call
// from any goroutine.
func (c *Coordinator) RequestOpen() {
	c.openRequested.Store(true)
}

// Start runs the main loop on the calling goroutine until ctx is cancelled,
// Stop is called or the host asks to quit.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	defer c.cancel()

	if c.opts.Watch {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.ctrl.Watch(c.ctx); err != nil {
				log.Printf("Keyboard reload disabled: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case <-ticker.C:
			if !c.step() {
				return nil
			}
		}
	}
}

// Stop ends the main loop and waits for background work.
func (c *Coordinator) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

// step handles pending host events, opens the overlay if asked to and
// drains one key. It returns false when the host asked to quit.
func (c *Coordinator) step() bool {
	open := c.openRequested.Swap(false)

	for !open {
		ev, ok := c.host.PollEvent()
		if !ok {
			break
		}
		switch ev.Kind {
		case host.EventQuit:
			return false
		case host.EventKeyDown, host.EventKeyUp:
			if ev.Injected {
				if c.opts.Debug {
					log.Printf("Delivered key %d (pressed=%t)", ev.Key, ev.Kind == host.EventKeyDown)
				}
				continue
			}
			if ev.Kind == host.EventKeyUp && ev.Key == c.opts.Hotkey {
				open = true
			}
		}
	}

	if open {
		if err := c.ctrl.Open(c.ctx, c.host); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Failed to run overlay: %v", err)
		}
	}

	c.ctrl.DrainOne()
	return true
}
