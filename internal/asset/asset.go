// Package asset loads the keyboard image shown by the overlay.
package asset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ColorKey is the color treated as fully transparent in keyboard images.
var ColorKey = color.RGBA{0, 255, 0, 255}

// Extensions lists the supported file extensions in lookup order.
var Extensions = []string{".bmp", ".png", ".svg"}

// Load decodes the image at path and makes ColorKey pixels transparent.
func Load(path string) (*image.NRGBA, error) {
	var (
		img image.Image
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".png":
		img, err = decodeRaster(path)
	case ".svg":
		img, err = decodeSVG(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	return ApplyColorKey(img, ColorKey), nil
}

// Find returns the first existing "<base><ext>" for the supported
// extensions.
func Find(base string) (string, error) {
	for _, ext := range Extensions {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("keyboard image %s.{bmp,png,svg} not found: %w", base, os.ErrNotExist)
}

// ApplyColorKey copies img into a new NRGBA image whose origin is (0,0),
// with every pixel equal to key made fully transparent.
func ApplyColorKey(img image.Image, key color.Color) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	kr, kg, kb, _ := key.RGBA()
	want := color.NRGBA{uint8(kr >> 8), uint8(kg >> 8), uint8(kb >> 8), 255}
	for i := 0; i < len(out.Pix); i += 4 {
		px := color.NRGBA{out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3]}
		if px == want {
			out.Pix[i+3] = 0
		}
	}
	return out
}

func decodeRaster(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// decodeSVG rasterizes an SVG keyboard at its view box size.
func decodeSVG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	icon, err := oksvg.ReadIconStream(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG %s: %w", path, err)
	}

	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("SVG %s has an empty view box", path)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}
