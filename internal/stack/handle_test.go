package stack

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"fystack/internal/stacktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder serves fixed images and records how it was used.
type fakeDecoder struct {
	pages   []image.Image
	count   int
	decoded []int
	closes  int
	failOn  int
}

func newFakeDecoder(count int, pages ...image.Image) *fakeDecoder {
	return &fakeDecoder{pages: pages, count: count, failOn: -1}
}

func (f *fakeDecoder) PageCount() int { return f.count }
func (f *fakeDecoder) Shape() (int, int) {
	b := f.pages[0].Bounds()
	return b.Dx(), b.Dy()
}
func (f *fakeDecoder) DecodePage(i int) (image.Image, error) {
	f.decoded = append(f.decoded, i)
	if i == f.failOn {
		return nil, errors.New("corrupt strip")
	}
	return f.pages[i], nil
}
func (f *fakeDecoder) Close() error { f.closes++; return nil }

func TestFrameCountNormalizesZero(t *testing.T) {
	dec := newFakeDecoder(0, image.NewGray(image.Rect(0, 0, 4, 3)))
	h := NewHandle("single.tif", dec)

	assert.Equal(t, 1, h.FrameCount())

	f, err := h.ReadFrame(0)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 3, f.Height)
}

func TestReadFrameOutOfRange(t *testing.T) {
	h := NewHandle("x.tif", newFakeDecoder(2, image.NewGray(image.Rect(0, 0, 1, 1))))

	for _, i := range []int{-1, 2, 100} {
		_, err := h.ReadFrame(i)
		var ie *IndexError
		require.ErrorAs(t, err, &ie, "index %d", i)
		assert.Equal(t, i, ie.Index)
		assert.Equal(t, 2, ie.Count)
	}
}

func TestReadFrameWrapsDecodeFailure(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 1, 1))
	dec := newFakeDecoder(2, g, g)
	dec.failOn = 1
	h := NewHandle("x.tif", dec)

	_, err := h.ReadFrame(1)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Page)
	assert.True(t, IsFormatError(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	dec := newFakeDecoder(1, image.NewGray(image.Rect(0, 0, 1, 1)))
	h := NewHandle("x.tif", dec)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.Equal(t, 1, dec.closes)

	_, err := h.ReadFrame(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.tif"), nil)
	require.Error(t, err)
	assert.True(t, IsFileError(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenDirectory(t *testing.T) {
	_, err := Open(t.TempDir(), nil)
	assert.True(t, IsFileError(err))
}

func TestOpenNotTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.tif")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0644))

	_, err := Open(path, nil)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestOpenRejectsDirectoryLoop(t *testing.T) {
	data := stacktest.Encode(stacktest.GrayPages(stacktest.GrayFrames(2, 2, 1)))
	// Point the last next-directory offset back at the first directory.
	first := data[4:8]
	copy(data[len(data)-4:], first)

	path := filepath.Join(t.TempDir(), "loop.tif")
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err := Open(path, nil)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, errDirLoop)
}

func TestOpenMultiPageRandomAccess(t *testing.T) {
	frames := stacktest.GrayFrames(5, 4, 6)
	path := stacktest.WriteFile(t, t.TempDir(), "stack.tif", stacktest.GrayPages(frames))

	h, err := Open(path, nil)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, 6, h.FrameCount())
	w, hh := h.Shape()
	assert.Equal(t, 5, w)
	assert.Equal(t, 4, hh)

	// Out of order on purpose.
	for _, i := range []int{4, 0, 5, 2} {
		f, err := h.ReadFrame(i)
		require.NoError(t, err)
		require.True(t, f.IsGray())
		for y := 0; y < 4; y++ {
			for x := 0; x < 5; x++ {
				assert.Equal(t, float64(frames[i].GrayAt(x, y).Y), f.At(x, y, 0), "frame %d (%d,%d)", i, x, y)
			}
		}
	}
}

func TestOpenSinglePage(t *testing.T) {
	path := stacktest.WriteGrayStack(t, t.TempDir(), "one.tif", 3, 3, 1)

	h, err := Open(path, nil)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, 1, h.FrameCount())
	_, err = h.ReadFrame(0)
	assert.NoError(t, err)
}

func TestOpenGray16AndRGB(t *testing.T) {
	g16 := image.NewGray16(image.Rect(0, 0, 2, 1))
	g16.SetGray16(0, 0, color.Gray16{Y: 1000})
	g16.SetGray16(1, 0, color.Gray16{Y: 60000})

	rgb := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgb.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	rgb.SetRGBA(1, 0, color.RGBA{B: 255, A: 255})

	path := stacktest.WriteFile(t, t.TempDir(), "mixed.tif", []stacktest.Page{
		stacktest.Gray16Page(g16),
		stacktest.RGBPage(rgb),
	})
	h, err := Open(path, nil)
	require.NoError(t, err)
	defer h.Close()

	f, err := h.ReadFrame(0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Channels)
	assert.Equal(t, []float64{1000, 60000}, f.Pix)

	f, err = h.ReadFrame(1)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Channels)
	assert.Equal(t, float64(0xffff), f.At(0, 0, 0))
	assert.Equal(t, float64(0), f.At(0, 0, 2))
	assert.Equal(t, float64(0xffff), f.At(1, 0, 2))
}

type memCache struct {
	pages map[IndexKey][]Page
	loads int
	saves int
}

func (m *memCache) LoadIndex(key IndexKey) ([]Page, bool) {
	m.loads++
	p, ok := m.pages[key]
	return p, ok
}

func (m *memCache) SaveIndex(key IndexKey, pages []Page) error {
	m.saves++
	m.pages[key] = pages
	return nil
}

func TestOpenUsesIndexCache(t *testing.T) {
	path := stacktest.WriteGrayStack(t, t.TempDir(), "cached.tif", 2, 2, 3)
	cache := &memCache{pages: map[IndexKey][]Page{}}

	h, err := Open(path, cache)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.Equal(t, 1, cache.saves)

	h, err = Open(path, cache)
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, 1, cache.saves, "second open should hit the cache")
	assert.Equal(t, 2, cache.loads)
	assert.Equal(t, 3, h.FrameCount())

	_, err = h.ReadFrame(2)
	assert.NoError(t, err)
}
