// Package render turns input vectors into grayscale rasters for
// inspection. It only reads the vectors it is given.
package render

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/born-ml/ffnet/internal/vecmath"
)

// Grayscale maps v, row-major with values in [0, 1], onto a w x h image.
// Values outside the range are clamped; non-finite values render black.
//
// Returns an error if len(v) != w*h.
func Grayscale(v []float64, w, h int) (*image.Gray, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: invalid size %dx%d", w, h)
	}
	if len(v) != w*h {
		return nil, fmt.Errorf("render: %d values do not fill %dx%d", len(v), w, h)
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: level(v[y*w+x])})
		}
	}
	return img, nil
}

// Upscale returns img enlarged by an integer factor with nearest-neighbor
// sampling.
func Upscale(img *image.Gray, factor int) *image.Gray {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			out.SetGray(x, y, img.GrayAt(b.Min.X+x/factor, b.Min.Y+y/factor))
		}
	}
	return out
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: failed to encode png: %w", err)
	}
	return nil
}

// WritePNG writes img to path.
func WritePNG(path string, img image.Image) (err error) {
	//nolint:gosec // G304: output path is supplied by the caller
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	buf := bufio.NewWriter(file)
	if err := Encode(buf, img); err != nil {
		return err
	}
	return buf.Flush()
}

func level(x float64) uint8 {
	x = vecmath.Finite(x)
	return uint8(math.Round(vecmath.Clamp(x, 0, 1) * 255))
}
