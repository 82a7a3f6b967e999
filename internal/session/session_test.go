package session

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/phinze/vkeybd/internal/buffer"
	"github.com/phinze/vkeybd/internal/config"
	"github.com/phinze/vkeybd/internal/device"
	"github.com/phinze/vkeybd/internal/host"
	"github.com/phinze/vkeybd/internal/host/hosttest"
	"github.com/phinze/vkeybd/internal/scancode"
)

const narrowDef = `# narrow keyboard
DISPLAY=20,0,99,13
a=0,14,9,27
b=10,14,19,27
APPLY=80,14,89,27
CANCEL=90,14,99,27
`

var (
	screenColor = color.RGBA{0, 0, 0, 255}
	keyColor    = color.RGBA{200, 200, 200, 255}
)

// On a 200x100 screen the 100x28 narrow keyboard is drawn at (50,72).
var (
	pointA      = image.Pt(55, 92)
	pointApply  = image.Pt(135, 92)
	pointCancel = image.Pt(145, 92)
)

// writeKeyboard writes a w×h keyboard image with a green top-left corner and
// its definition for class into dir.
func writeKeyboard(t *testing.T, dir string, class, w, h int, def string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(keyColor), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, 4, 4), image.NewUniform(color.RGBA{0, 255, 0, 255}), image.Point{}, draw.Src)

	base := filepath.Join(dir, "vkeybd_"+strconv.Itoa(class))
	f, err := os.Create(base + ".bmp")
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, img))
	require.NoError(t, f.Close())

	require.NoError(t, os.WriteFile(base+".def", []byte(def), 0o644))
}

type fixture struct {
	ctrl  *Controller
	kb    *device.Recorder
	clock time.Time
	exits []int
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Dir = dir

	f := &fixture{kb: &device.Recorder{}, clock: time.Unix(1000, 0)}
	f.ctrl = New(cfg, f.kb)
	f.ctrl.now = func() time.Time { return f.clock }
	f.ctrl.sleep = func(d time.Duration) { f.clock = f.clock.Add(d) }
	f.ctrl.exit = func(code int) { f.exits = append(f.exits, code) }
	return f
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeKeyboard(t, dir, 320, 100, 28, narrowDef)
	f := newFixture(t, dir)

	h := hosttest.New(200, 100, screenColor)
	var pointerDuring, joystickDuring bool
	var overlayPixel, cornerPixel color.RGBA
	h.OnIdle = func(fh *hosttest.Fake) {
		pointerDuring = fh.PointerVisible
		joystickDuring = fh.JoystickEnabled
		overlayPixel = fh.Screen.RGBAAt(pointA.X, pointA.Y)
		cornerPixel = fh.Screen.RGBAAt(51, 73)
		fh.Click(pointApply, host.ButtonLeft)
	}
	h.Click(pointA, host.ButtonLeft)

	require.NoError(t, f.ctrl.Open(context.Background(), h))

	assert.Equal(t, 320, f.ctrl.SizeClass())
	assert.True(t, pointerDuring)
	assert.True(t, joystickDuring)
	assert.Equal(t, keyColor, overlayPixel)
	assert.Equal(t, screenColor, cornerPixel, "color key is transparent")

	// Host state and screen are restored.
	assert.False(t, h.PointerVisible)
	assert.False(t, h.JoystickEnabled)
	assert.Equal(t, screenColor, h.Screen.RGBAAt(pointA.X, pointA.Y))

	require.True(t, f.ctrl.Pending())

	// First drain is immediate.
	assert.True(t, f.ctrl.DrainOne())
	assert.Equal(t, []buffer.Entry{{Code: scancode.KeyA, Pressed: true}}, f.kb.Entries())

	// Too soon for the next one.
	f.clock = f.clock.Add(59 * time.Millisecond)
	assert.True(t, f.ctrl.DrainOne())
	assert.Len(t, f.kb.Entries(), 1)

	f.clock = f.clock.Add(time.Millisecond)
	assert.False(t, f.ctrl.DrainOne())
	assert.Equal(t, []buffer.Entry{
		{Code: scancode.KeyA, Pressed: true},
		{Code: scancode.KeyA, Pressed: false},
	}, f.kb.Entries())

	assert.False(t, f.ctrl.DrainOne())
	assert.False(t, f.ctrl.Pending())
}

func TestOpenCancelDiscardsKeys(t *testing.T) {
	dir := t.TempDir()
	writeKeyboard(t, dir, 320, 100, 28, narrowDef)
	f := newFixture(t, dir)

	h := hosttest.New(200, 100, screenColor)
	h.Click(pointA, host.ButtonLeft)
	h.Click(pointA, host.ButtonRight)
	h.Click(pointCancel, host.ButtonLeft)

	require.NoError(t, f.ctrl.Open(context.Background(), h))
	assert.False(t, f.ctrl.Pending())
	assert.False(t, f.ctrl.DrainOne())
	assert.Empty(t, f.kb.Entries())
}

func TestOpenClearsPreviousBuffer(t *testing.T) {
	dir := t.TempDir()
	writeKeyboard(t, dir, 320, 100, 28, narrowDef)
	f := newFixture(t, dir)
	f.ctrl.Buffer().Push(scancode.KeyB, true)

	h := hosttest.New(200, 100, screenColor)
	h.Click(pointApply, host.ButtonLeft)

	require.NoError(t, f.ctrl.Open(context.Background(), h))
	assert.False(t, f.ctrl.Pending())
}

func TestOpenWithoutKeyboardIsNoop(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name:  "no files",
			setup: func(t *testing.T, dir string) {},
		},
		{
			name: "no definition",
			setup: func(t *testing.T, dir string) {
				writeKeyboard(t, dir, 320, 100, 28, narrowDef)
				require.NoError(t, os.Remove(filepath.Join(dir, "vkeybd_320.def")))
			},
		},
		{
			name: "no display",
			setup: func(t *testing.T, dir string) {
				writeKeyboard(t, dir, 320, 100, 28, "a=0,14,9,27\n")
			},
		},
		{
			name: "wrong class only",
			setup: func(t *testing.T, dir string) {
				writeKeyboard(t, dir, 640, 100, 28, narrowDef)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			f := newFixture(t, dir)

			h := hosttest.New(200, 100, screenColor)
			require.NoError(t, f.ctrl.Open(context.Background(), h))

			assert.Zero(t, h.Presents)
			assert.False(t, h.PointerVisible)
			assert.Zero(t, f.ctrl.SizeClass())
		})
	}
}

func TestOpenPicksSizeClass(t *testing.T) {
	dir := t.TempDir()
	writeKeyboard(t, dir, 320, 100, 28, narrowDef)
	writeKeyboard(t, dir, 640, 200, 56, "DISPLAY=40,0,199,27\nAPPLY=0,28,199,55\n")
	f := newFixture(t, dir)

	narrow := hosttest.New(200, 100, screenColor)
	narrow.Click(pointApply, host.ButtonLeft)
	require.NoError(t, f.ctrl.Open(context.Background(), narrow))
	assert.Equal(t, 320, f.ctrl.SizeClass())

	wide := hosttest.New(640, 480, screenColor)
	// The 200x56 keyboard sits at (220,424).
	wide.Click(image.Pt(300, 460), host.ButtonLeft)
	require.NoError(t, f.ctrl.Open(context.Background(), wide))
	assert.Equal(t, 640, f.ctrl.SizeClass())
	assert.Equal(t, 2, wide.Presents, "shown once, restored once")
}

func TestOpenReloadsStaleKeyboard(t *testing.T) {
	dir := t.TempDir()
	writeKeyboard(t, dir, 320, 100, 28, narrowDef)
	f := newFixture(t, dir)

	h := hosttest.New(200, 100, screenColor)
	h.Click(pointApply, host.ButtonLeft)
	require.NoError(t, f.ctrl.Open(context.Background(), h))

	// Swap a and b.
	swapped := "DISPLAY=20,0,99,13\nb=0,14,9,27\na=10,14,19,27\nAPPLY=80,14,89,27\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vkeybd_320.def"), []byte(swapped), 0o644))

	// Not reloaded until marked stale.
	h.Click(pointA, host.ButtonRight)
	h.Click(pointApply, host.ButtonLeft)
	require.NoError(t, f.ctrl.Open(context.Background(), h))
	assert.True(t, f.ctrl.Buffer().IsHeld(scancode.KeyA))

	f.ctrl.stale.Store(true)
	h.Click(pointA, host.ButtonRight)
	h.Click(pointApply, host.ButtonLeft)
	require.NoError(t, f.ctrl.Open(context.Background(), h))
	assert.True(t, f.ctrl.Buffer().IsHeld(scancode.KeyB))
	assert.False(t, f.ctrl.Buffer().IsHeld(scancode.KeyA))
}

func TestOpenQuitExits(t *testing.T) {
	dir := t.TempDir()
	writeKeyboard(t, dir, 320, 100, 28, narrowDef)
	f := newFixture(t, dir)

	h := hosttest.New(200, 100, screenColor)
	h.Queue(host.Event{Kind: host.EventQuit})

	require.NoError(t, f.ctrl.Open(context.Background(), h))
	assert.Equal(t, []int{1}, f.exits)
}

func TestOpenContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeKeyboard(t, dir, 320, 100, 28, narrowDef)
	f := newFixture(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := hosttest.New(200, 100, screenColor)
	err := f.ctrl.Open(ctx, h)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, screenColor, h.Screen.RGBAAt(pointA.X, pointA.Y), "screen restored")
}

func TestDrainDeliveryErrorDropsKey(t *testing.T) {
	f := newFixture(t, t.TempDir())
	f.kb.Err = device.ErrUnsupported
	f.ctrl.Buffer().Push(scancode.KeyA, true)

	assert.False(t, f.ctrl.DrainOne())
	assert.Len(t, f.kb.Entries(), 1)
}

func TestWatchMarksStale(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Watch(ctx) }()

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	def := filepath.Join(dir, "vkeybd_320.def")
	require.Eventually(t, func() bool {
		// Rewrite until the watcher is up and sees it.
		_ = os.WriteFile(def, []byte(narrowDef), 0o644)
		return f.ctrl.stale.Load()
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchMissingDir(t *testing.T) {
	f := newFixture(t, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, f.ctrl.Watch(context.Background()))
}

func TestReadoutFont(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mono.ttf"), gomono.TTF, 0o644))

	cfg := config.Default()
	cfg.Dir = dir

	cfg.Font = "mono.ttf"
	loaded := New(cfg, &device.Recorder{}).readoutFace()
	assert.NotEqual(t, basicfont.Face7x13, loaded)

	cfg.Font = "missing.ttf"
	assert.Equal(t, basicfont.Face7x13, New(cfg, &device.Recorder{}).readoutFace())

	cfg.Font = ""
	assert.Equal(t, basicfont.Face7x13, New(cfg, &device.Recorder{}).readoutFace())
}
