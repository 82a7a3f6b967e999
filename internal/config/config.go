// Package config loads the overlay configuration and resolves the directory
// holding the keyboard images and definition files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by Validate failures.
var ErrInvalid = errors.New("invalid configuration")

// FileName is the configuration file looked up in the configuration
// directory when no explicit path is given.
const FileName = "vkeybd.toml"

// Device backends.
const (
	DeviceSDL    = "sdl"
	DeviceUinput = "uinput"
)

// Config holds the overlay configuration.
type Config struct {
	// Dir holds vkeybd_<class>.{bmp,png,svg} and vkeybd_<class>.def.
	Dir string `toml:"dir" json:"dir" yaml:"dir"`

	// NarrowThreshold is the screen width below which the narrow size-class
	// is used.
	NarrowThreshold int `toml:"narrow_threshold" json:"narrow_threshold" yaml:"narrow_threshold"`

	// NarrowClass and WideClass name the two keyboard size-classes.
	NarrowClass int `toml:"narrow_class" json:"narrow_class" yaml:"narrow_class"`
	WideClass   int `toml:"wide_class" json:"wide_class" yaml:"wide_class"`

	// BufferCapacity is the number of key transitions the overlay can queue.
	BufferCapacity int `toml:"buffer_capacity" json:"buffer_capacity" yaml:"buffer_capacity"`

	// JoystickRatio divides the screen width to get the pointer speed at
	// full joystick deflection.
	JoystickRatio int `toml:"joystick_ratio" json:"joystick_ratio" yaml:"joystick_ratio"`

	Timing TimingConfig `toml:"timing" json:"timing" yaml:"timing"`

	// Font is an optional TrueType or OpenType font for the keystroke
	// readout; the built-in 7x13 font is used when empty.
	Font     string  `toml:"font" json:"font" yaml:"font"`
	FontSize float64 `toml:"font_size" json:"font_size" yaml:"font_size"`

	// Device selects the keyboard that receives the keys: "sdl" or "uinput".
	Device string `toml:"device" json:"device" yaml:"device"`

	// Watch reloads the keyboard files when they change on disk.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`

	// Debug adds file and line to log output.
	Debug bool `toml:"debug" json:"debug" yaml:"debug"`
}

// TimingConfig holds the overlay intervals in milliseconds.
type TimingConfig struct {
	CursorBlinkMs int `toml:"cursor_blink_ms" json:"cursor_blink_ms" yaml:"cursor_blink_ms"`
	JoystickMs    int `toml:"joystick_ms" json:"joystick_ms" yaml:"joystick_ms"`
	FlushMs       int `toml:"flush_ms" json:"flush_ms" yaml:"flush_ms"`
	PollMs        int `toml:"poll_ms" json:"poll_ms" yaml:"poll_ms"`
}

// Timing holds the intervals used by the overlay loop and the drain.
type Timing struct {
	CursorBlink time.Duration
	Joystick    time.Duration
	Flush       time.Duration
	Poll        time.Duration
}

// Default returns the default configuration. Dir is left empty; see
// ResolveDir.
func Default() Config {
	return Config{
		NarrowThreshold: 640,
		NarrowClass:     320,
		WideClass:       640,
		BufferCapacity:  250,
		JoystickRatio:   80,
		Timing: TimingConfig{
			CursorBlinkMs: 250,
			JoystickMs:    12,
			FlushMs:       60,
			PollMs:        1,
		},
		FontSize: 12,
		Device:   DeviceSDL,
		Watch:    true,
	}
}

// Intervals converts the configured timing to durations.
func (c Config) Intervals() Timing {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return Timing{
		CursorBlink: ms(c.Timing.CursorBlinkMs),
		Joystick:    ms(c.Timing.JoystickMs),
		Flush:       ms(c.Timing.FlushMs),
		Poll:        ms(c.Timing.PollMs),
	}
}

// SizeClass returns the keyboard size-class for a screen width.
func (c Config) SizeClass(screenWidth int) int {
	if screenWidth < c.NarrowThreshold {
		return c.NarrowClass
	}
	return c.WideClass
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}

	positive("narrow_threshold", c.NarrowThreshold)
	positive("narrow_class", c.NarrowClass)
	positive("wide_class", c.WideClass)
	positive("buffer_capacity", c.BufferCapacity)
	positive("joystick_ratio", c.JoystickRatio)
	positive("timing.cursor_blink_ms", c.Timing.CursorBlinkMs)
	positive("timing.joystick_ms", c.Timing.JoystickMs)
	positive("timing.flush_ms", c.Timing.FlushMs)
	if c.Timing.PollMs < 0 {
		errs = append(errs, fmt.Errorf("timing.poll_ms must not be negative, got %d", c.Timing.PollMs))
	}
	if c.Font != "" && c.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font_size must be positive, got %g", c.FontSize))
	}
	if c.Device != DeviceSDL && c.Device != DeviceUinput {
		errs = append(errs, fmt.Errorf("device must be %q or %q, got %q", DeviceSDL, DeviceUinput, c.Device))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Load reads the configuration file at path, decoding it by extension, and
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("unable to parse config file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnv overrides settings from VKEYBD_* environment variables.
func applyEnv(cfg *Config) {
	if dir := os.Getenv("VKEYBD_DIR"); dir != "" {
		cfg.Dir = dir
	}
	if dev := os.Getenv("VKEYBD_DEVICE"); dev != "" {
		cfg.Device = dev
	}
}

// ResolveDir picks the configuration directory: the flag value if set,
// then VKEYBD_DIR, then "vkeybd" under the user configuration directory.
func ResolveDir(flagDir string) (string, error) {
	if flagDir != "" {
		return filepath.Abs(flagDir)
	}
	if dir := os.Getenv("VKEYBD_DIR"); dir != "" {
		return filepath.Abs(dir)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find user config directory: %w", err)
	}
	return filepath.Join(base, "vkeybd"), nil
}
