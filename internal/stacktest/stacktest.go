// Package stacktest writes small uncompressed multi-page TIFF files for tests.
package stacktest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// Page is one uncompressed image in little-endian sample order.
type Page struct {
	Width   int
	Height  int
	Samples int
	Bits    int
	Data    []byte
}

type entry struct {
	tag    uint16
	typ    uint16
	values []uint32
}

const (
	typeShort = 3
	typeLong  = 4
)

// GrayPage converts an 8-bit gray image.
func GrayPage(img *image.Gray) Page {
	b := img.Bounds()
	data := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			data = append(data, img.GrayAt(x, y).Y)
		}
	}
	return Page{Width: b.Dx(), Height: b.Dy(), Samples: 1, Bits: 8, Data: data}
}

// Gray16Page converts a 16-bit gray image.
func Gray16Page(img *image.Gray16) Page {
	b := img.Bounds()
	data := make([]byte, 0, 2*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			data = binary.LittleEndian.AppendUint16(data, img.Gray16At(x, y).Y)
		}
	}
	return Page{Width: b.Dx(), Height: b.Dy(), Samples: 1, Bits: 16, Data: data}
}

// RGBPage converts an RGBA image, dropping alpha.
func RGBPage(img *image.RGBA) Page {
	b := img.Bounds()
	data := make([]byte, 0, 3*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			data = append(data, c.R, c.G, c.B)
		}
	}
	return Page{Width: b.Dx(), Height: b.Dy(), Samples: 3, Bits: 8, Data: data}
}

// Encode writes pages as a little-endian TIFF, one image directory per page.
func Encode(pages []Page) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(0)) // patched below

	prevNext := 4 // position of the offset that should point at the next directory
	for _, p := range pages {
		stripOff := buf.Len()
		buf.Write(p.Data)
		if buf.Len()%2 == 1 {
			buf.WriteByte(0)
		}

		photometric := uint32(1)
		if p.Samples == 3 {
			photometric = 2
		}
		bits := make([]uint32, p.Samples)
		for i := range bits {
			bits[i] = uint32(p.Bits)
		}
		entries := []entry{
			{256, typeLong, []uint32{uint32(p.Width)}},
			{257, typeLong, []uint32{uint32(p.Height)}},
			{258, typeShort, bits},
			{259, typeShort, []uint32{1}},
			{262, typeShort, []uint32{photometric}},
			{273, typeLong, []uint32{uint32(stripOff)}},
			{277, typeShort, []uint32{uint32(p.Samples)}},
			{278, typeLong, []uint32{uint32(p.Height)}},
			{279, typeLong, []uint32{uint32(len(p.Data))}},
		}

		ifdOff := buf.Len()
		out := buf.Bytes()
		le.PutUint32(out[prevNext:], uint32(ifdOff))

		dirSize := 2 + 12*len(entries) + 4
		extra := ifdOff + dirSize
		var overflow bytes.Buffer

		binary.Write(&buf, le, uint16(len(entries)))
		for _, e := range entries {
			binary.Write(&buf, le, e.tag)
			binary.Write(&buf, le, e.typ)
			binary.Write(&buf, le, uint32(len(e.values)))

			size := 2
			if e.typ == typeLong {
				size = 4
			}
			var val [4]byte
			if size*len(e.values) <= 4 {
				for i, v := range e.values {
					if size == 2 {
						le.PutUint16(val[2*i:], uint16(v))
					} else {
						le.PutUint32(val[:], v)
					}
				}
			} else {
				le.PutUint32(val[:], uint32(extra+overflow.Len()))
				for _, v := range e.values {
					if size == 2 {
						binary.Write(&overflow, le, uint16(v))
					} else {
						binary.Write(&overflow, le, v)
					}
				}
			}
			buf.Write(val[:])
		}
		prevNext = buf.Len()
		binary.Write(&buf, le, uint32(0))
		buf.Write(overflow.Bytes())
	}
	return buf.Bytes()
}

// GrayFrames builds n distinct 8-bit frames. Pixel (x, y) of frame z has
// value (z*37 + y*w + x) % 251.
func GrayFrames(w, h, n int) []*image.Gray {
	frames := make([]*image.Gray, n)
	for z := range frames {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8((z*37 + y*w + x) % 251)})
			}
		}
		frames[z] = img
	}
	return frames
}

// GrayPages converts frames with GrayPage.
func GrayPages(frames []*image.Gray) []Page {
	pages := make([]Page, len(frames))
	for i, f := range frames {
		pages[i] = GrayPage(f)
	}
	return pages
}

// WriteFile encodes pages into dir/name and returns the full path.
func WriteFile(t testing.TB, dir, name string, pages []Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Encode(pages), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// WriteGrayStack writes a w×h stack of n frames from GrayFrames.
func WriteGrayStack(t testing.TB, dir, name string, w, h, n int) string {
	t.Helper()
	return WriteFile(t, dir, name, GrayPages(GrayFrames(w, h, n)))
}
