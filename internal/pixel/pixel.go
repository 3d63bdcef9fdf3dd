// Package pixel turns decoded frames into 8-bit images a canvas can draw.
package pixel

import (
	"image"
	"image/color"
	"math"

	"fystack/internal/stack"

	"gonum.org/v1/gonum/floats"
)

// Range returns the smallest and largest sample in f.
func Range(f *stack.Frame) (lo, hi float64) {
	if len(f.Pix) == 0 {
		return 0, 0
	}
	return floats.Min(f.Pix), floats.Max(f.Pix)
}

// ToDisplayBuffer stretches the samples of f linearly so the frame's
// minimum maps to 0 and its maximum to 255. A constant frame maps to 0.
// Single-channel frames become *image.Gray, all others opaque *image.RGBA.
func ToDisplayBuffer(f *stack.Frame) image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	lo, hi := Range(f)
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}
	level := func(v float64) uint8 {
		return uint8(math.Round((v - lo) * scale))
	}

	if f.IsGray() {
		img := image.NewGray(rect)
		for i, v := range f.Pix {
			img.Pix[i] = level(v)
		}
		return img
	}

	img := image.NewRGBA(rect)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := color.RGBA{A: 0xff}
			c.R = level(f.At(x, y, 0))
			if f.Channels > 2 {
				c.G = level(f.At(x, y, 1))
				c.B = level(f.At(x, y, 2))
			} else {
				c.G, c.B = c.R, c.R
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
