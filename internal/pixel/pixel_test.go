package pixel

import (
	"image"
	"testing"

	"fystack/internal/stack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplayBufferStretchesGray(t *testing.T) {
	f := stack.NewFrame(3, 1, 1)
	copy(f.Pix, []float64{1000, 1500, 2000})

	img, ok := ToDisplayBuffer(f).(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 3, 1), img.Bounds())
	assert.Equal(t, []uint8{0, 128, 255}, img.Pix)
}

func TestToDisplayBufferConstantFrame(t *testing.T) {
	f := stack.NewFrame(2, 2, 1)
	for i := range f.Pix {
		f.Pix[i] = 42
	}

	img := ToDisplayBuffer(f).(*image.Gray)
	assert.Equal(t, []uint8{0, 0, 0, 0}, img.Pix)
}

func TestToDisplayBufferColour(t *testing.T) {
	f := stack.NewFrame(2, 1, 3)
	copy(f.Pix, []float64{
		0xffff, 0, 0,
		0, 0, 0xffff,
	})

	img, ok := ToDisplayBuffer(f).(*image.RGBA)
	require.True(t, ok)
	c := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(0), c.B)
	assert.Equal(t, uint8(255), c.A)
	c = img.RGBAAt(1, 0)
	assert.Equal(t, uint8(0), c.R)
	assert.Equal(t, uint8(255), c.B)
}

func TestToDisplayBufferDoesNotModifyFrame(t *testing.T) {
	f := stack.NewFrame(2, 1, 1)
	copy(f.Pix, []float64{3, 9})

	ToDisplayBuffer(f)
	assert.Equal(t, []float64{3, 9}, f.Pix)
}

func TestRange(t *testing.T) {
	f := stack.NewFrame(2, 2, 1)
	copy(f.Pix, []float64{5, -1, 7, 0})
	lo, hi := Range(f)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	lo, hi = Range(&stack.Frame{})
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
