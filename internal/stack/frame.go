package stack

import (
	"image"
)

// Frame is one decoded page. Pix holds raw sample values in row-major,
// channel-interleaved order: the sample for channel c of pixel (x, y)
// lives at (y*Width+x)*Channels + c.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []float64
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height, channels int) *Frame {
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float64, width*height*channels),
	}
}

// At returns the sample for channel c at (x, y).
func (f *Frame) At(x, y, c int) float64 {
	return f.Pix[(y*f.Width+x)*f.Channels+c]
}

// Set stores v as the sample for channel c at (x, y).
func (f *Frame) Set(x, y, c int, v float64) {
	f.Pix[(y*f.Width+x)*f.Channels+c] = v
}

// IsGray reports whether the frame has a single channel.
func (f *Frame) IsGray() bool {
	return f.Channels == 1
}

// FrameFromImage copies the samples of img into a new Frame.
// Gray and Gray16 images keep one channel with their native range.
// Every other model is read as 16-bit RGB.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		f := NewFrame(w, h, 1)
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w]
			for x, v := range row {
				f.Pix[y*w+x] = float64(v)
			}
		}
		return f
	case *image.Gray16:
		f := NewFrame(w, h, 1)
		for y := 0; y < h; y++ {
			off := y * src.Stride
			for x := 0; x < w; x++ {
				hi, lo := src.Pix[off+2*x], src.Pix[off+2*x+1]
				f.Pix[y*w+x] = float64(uint16(hi)<<8 | uint16(lo))
			}
		}
		return f
	}

	f := NewFrame(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := (y*w + x) * 3
			f.Pix[i] = float64(r)
			f.Pix[i+1] = float64(g)
			f.Pix[i+2] = float64(bl)
		}
	}
	return f
}
