package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"levelsetseg/pkg/grid"
)

// loadImage reads a JPEG or PNG file and converts it to a grayscale grid
// with unit spacing, values in [0, 255].
func loadImage(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	g, err := grid.New(height, width)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			g.Set(y*width+x, float64(c.Y))
		}
	}
	return g, nil
}

// saveImage writes a 2D grid as an 8-bit grayscale PNG, rescaling the
// value range to 0..255 so intermediate fields of any magnitude remain
// viewable.
func saveImage(g *grid.Grid, path string) error {
	shape := g.Shape()
	height, width := shape[0], shape[1]

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.Data() {
		if math.IsInf(v, 0) || v == math.MaxFloat64 {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	scale := 0.0
	if hi > lo {
		scale = 255.0 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := g.At(y*width + x)
			if math.IsInf(v, 0) || v == math.MaxFloat64 {
				v = hi
			}
			img.SetGray(x, y, color.Gray{Y: uint8((v - lo) * scale)})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
