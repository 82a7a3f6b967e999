package layout

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDef = `# sample keyboard
DISPLAY = 20, 0, 99, 13

a=0,0,9,13
 b = 10 , 0 , 19 , 13
	APPLY=0,14,49,27
CANCEL=50,14,99,27
`

func TestParse(t *testing.T) {
	l, err := Parse(strings.NewReader(sampleDef))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(20, 0, 100, 14), l.Display)
	require.Len(t, l.Keys, 4)
	assert.Equal(t, Key{Name: "a", Rect: image.Rect(0, 0, 10, 14)}, l.Keys[0])
	assert.Equal(t, Key{Name: "b", Rect: image.Rect(10, 0, 20, 14)}, l.Keys[1])
	assert.Equal(t, "APPLY", l.Keys[2].Name)
	assert.Equal(t, "CANCEL", l.Keys[3].Name)
	assert.Empty(t, l.Warnings)
}

func TestParseWarnings(t *testing.T) {
	def := strings.Join([]string{
		"DISPLAY=0,0,10,10",
		"nocoords",
		"=1,2,3,4",
		"a=1,2,3",
		"b=1,2,3,4,5",
		"c=1,x,3,4",
		"d=-1,2,3,4",
		"e=5,5,4,6",
		"ok=1,1,2,2",
		"DISPLAY=0,0,20,20",
	}, "\n")

	l, err := Parse(strings.NewReader(def))
	require.NoError(t, err)

	require.Len(t, l.Keys, 1)
	assert.Equal(t, "ok", l.Keys[0].Name)
	assert.Equal(t, image.Rect(0, 0, 11, 11), l.Display, "second DISPLAY must be ignored")

	var lines []int
	for _, w := range l.Warnings {
		lines = append(lines, w.Line)
	}
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 10}, lines)
	assert.Equal(t, "nocoords", l.Warnings[0].Text)
}

func TestParseWithoutDisplay(t *testing.T) {
	l, err := Parse(strings.NewReader("a=0,0,9,13\n"))
	require.ErrorIs(t, err, ErrNoDisplay)
	require.NotNil(t, l)
	assert.Len(t, l.Keys, 1)
	assert.True(t, l.Display.Empty())
}

func TestParseKeepsDuplicates(t *testing.T) {
	l, err := Parse(strings.NewReader("DISPLAY=0,0,1,1\nx=0,0,9,9\nx=5,5,20,20\n"))
	require.NoError(t, err)
	require.Len(t, l.Keys, 2)

	k, ok := l.HitTest(image.Pt(6, 6))
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 10, 10), k.Rect, "first match wins")
}

func TestHitTest(t *testing.T) {
	l, err := Parse(strings.NewReader(sampleDef))
	require.NoError(t, err)

	tests := []struct {
		name string
		p    image.Point
		want string
	}{
		{"inside a", image.Pt(4, 6), "a"},
		{"top-left corner", image.Pt(0, 0), "a"},
		{"bottom-right corner", image.Pt(9, 13), "a"},
		{"right edge of a", image.Pt(9, 0), "a"},
		{"left edge of b", image.Pt(10, 5), "b"},
		{"apply", image.Pt(25, 20), "APPLY"},
		{"cancel edge", image.Pt(99, 27), "CANCEL"},
		{"below all", image.Pt(5, 28), ""},
		{"right of all", image.Pt(100, 0), ""},
		{"negative", image.Pt(-1, -1), ""},
		{"display is not a key", image.Pt(50, 5), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, ok := l.HitTest(tt.p)
			if tt.want == "" {
				assert.False(t, ok, "got %q", k.Name)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, k.Name)
		})
	}
}

func TestHitTestEveryInteriorPoint(t *testing.T) {
	l, err := Parse(strings.NewReader("DISPLAY=100,100,110,110\nk=3,4,12,9\n"))
	require.NoError(t, err)

	for y := 0; y < 15; y++ {
		for x := 0; x < 15; x++ {
			_, ok := l.HitTest(image.Pt(x, y))
			inside := x >= 3 && x <= 12 && y >= 4 && y <= 9
			assert.Equal(t, inside, ok, "point %d,%d", x, y)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vkeybd_640.def")
	require.NoError(t, os.WriteFile(path, []byte(sampleDef+"garbage\n"), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, l.Keys, 4)
	assert.Len(t, l.Warnings, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.def"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadWithoutDisplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodisplay.def")
	require.NoError(t, os.WriteFile(path, []byte("a=0,0,1,1\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrNoDisplay)
}
