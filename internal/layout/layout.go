// Package layout parses keyboard definition files and hit-tests points
// against the keys they describe.
//
// A definition file holds one key per line in the form
//
//	name=x,y,x2,y2
//
// where (x,y) and (x2,y2) are the inclusive corners of the key in pixels,
// relative to the top-left corner of the keyboard image. Whitespace is
// ignored anywhere in a line, and blank lines and lines starting with '#'
// are skipped. The reserved name DISPLAY marks the keystroke readout area.
package layout

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/phinze/vkeybd/internal/scancode"
)

// ErrNoDisplay is returned when a definition has no DISPLAY rectangle.
var ErrNoDisplay = errors.New("no " + scancode.Display + " rectangle in definition")

// Key is one clickable rectangle of the keyboard image.
type Key struct {
	Name string
	// Rect is half-open, so the definition corners map to Rect.Min and
	// Rect.Max minus one.
	Rect image.Rectangle
}

// Contains reports whether p lies on or inside the key's edges.
func (k Key) Contains(p image.Point) bool {
	return p.In(k.Rect)
}

// Warning describes a definition line that was skipped.
type Warning struct {
	Line int
	Text string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %q", w.Line, w.Text)
}

// Layout is a parsed keyboard definition.
type Layout struct {
	// Keys are kept in file order; duplicates are not removed.
	Keys []Key
	// Display is the readout rectangle.
	Display image.Rectangle
	// Warnings lists the lines that were ignored.
	Warnings []Warning

	hasDisplay bool
}

// Parse reads a keyboard definition. Malformed lines are recorded as
// warnings and skipped; only I/O errors and a missing DISPLAY rectangle
// make Parse fail.
func Parse(r io.Reader) (*Layout, error) {
	l := &Layout{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := packLine(raw)
		if line == "" || line[0] == '#' {
			continue
		}

		key, ok := decodeLine(line)
		if !ok {
			l.Warnings = append(l.Warnings, Warning{Line: lineNo, Text: raw})
			continue
		}

		if key.Name == scancode.Display {
			if l.hasDisplay {
				l.Warnings = append(l.Warnings, Warning{Line: lineNo, Text: raw})
				continue
			}
			l.Display = key.Rect
			l.hasDisplay = true
			continue
		}
		l.Keys = append(l.Keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}

	if !l.hasDisplay {
		return l, ErrNoDisplay
	}
	return l, nil
}

// Load parses the definition file at path and logs every skipped line.
func Load(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition: %w", err)
	}
	defer f.Close()

	l, err := Parse(f)
	if l != nil {
		for _, w := range l.Warnings {
			log.Printf("Bad content in keyboard definition %s, %s ignored", path, w)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// HitTest returns the first key, in file order, containing p.
func (l *Layout) HitTest(p image.Point) (Key, bool) {
	for _, k := range l.Keys {
		if k.Contains(p) {
			return k, true
		}
	}
	return Key{}, false
}

// packLine removes every whitespace character from s.
func packLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// decodeLine parses a packed "name=x,y,x2,y2" line.
func decodeLine(line string) (Key, bool) {
	name, coords, ok := strings.Cut(line, "=")
	if !ok || name == "" {
		return Key{}, false
	}

	parts := strings.Split(coords, ",")
	if len(parts) != 4 {
		return Key{}, false
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Key{}, false
		}
		v[i] = n
	}
	if v[2] < v[0] || v[3] < v[1] {
		return Key{}, false
	}

	return Key{
		Name: name,
		Rect: image.Rect(v[0], v[1], v[2]+1, v[3]+1),
	}, true
}
