package stack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	exiftiff "github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/image/tiff"
)

// TIFF header and baseline tag numbers used to build the page table.
const (
	headerSize = 8

	tagImageWidth      = 256
	tagImageLength     = 257
	tagSamplesPerPixel = 277

	// maxPages bounds the directory walk on corrupt chains.
	maxPages = 1 << 20
)

var (
	errNotTIFF      = errors.New("not a TIFF file")
	errDirLoop      = errors.New("image directory chain loops")
	errNoDimensions = errors.New("first page has no width or height")
)

// TIFFDecoder decodes pages of a multi-page TIFF by index. The page table
// is built once when the decoder is created; decoding page i only reads
// page i.
type TIFFDecoder struct {
	file   *os.File
	size   int64
	order  binary.ByteOrder
	header [headerSize]byte
	pages  []Page
}

var _ Decoder = (*TIFFDecoder)(nil)

// readHeader validates the 8-byte TIFF header and returns the byte order
// and the offset of the first image directory.
func readHeader(r io.ReaderAt) ([headerSize]byte, binary.ByteOrder, int64, error) {
	var hdr [headerSize]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return hdr, nil, 0, errNotTIFF
	}
	var order binary.ByteOrder
	switch string(hdr[:4]) {
	case "II\x2A\x00":
		order = binary.LittleEndian
	case "MM\x00\x2A":
		order = binary.BigEndian
	default:
		return hdr, nil, 0, errNotTIFF
	}
	return hdr, order, int64(order.Uint32(hdr[4:8])), nil
}

// dirReader reads sequentially from an offset while answering ReadAt
// calls relative to the start of the file, which is how directory
// entries address their out-of-line values.
type dirReader struct {
	ra  io.ReaderAt
	off int64
}

func (d *dirReader) Read(p []byte) (int, error) {
	n, err := d.ra.ReadAt(p, d.off)
	d.off += int64(n)
	return n, err
}

func (d *dirReader) ReadAt(p []byte, off int64) (int, error) {
	return d.ra.ReadAt(p, off)
}

// walkPages follows the directory chain starting at first.
func walkPages(r io.ReaderAt, order binary.ByteOrder, first, size int64) ([]Page, error) {
	var pages []Page
	seen := make(map[int64]bool)

	for off := first; off != 0; {
		if off < headerSize || off >= size {
			return nil, fmt.Errorf("image directory offset %d outside file", off)
		}
		if seen[off] {
			return nil, errDirLoop
		}
		if len(pages) >= maxPages {
			return nil, fmt.Errorf("more than %d pages", maxPages)
		}
		seen[off] = true

		dir, next, err := exiftiff.DecodeDir(&dirReader{ra: r, off: off}, order)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", len(pages), err)
		}
		pages = append(pages, pageFromDir(off, dir))
		off = int64(uint32(next))
	}

	if len(pages) == 0 || pages[0].Width <= 0 || pages[0].Height <= 0 {
		return nil, errNoDimensions
	}
	return pages, nil
}

func pageFromDir(off int64, dir *exiftiff.Dir) Page {
	p := Page{Offset: off, Samples: 1}
	for _, t := range dir.Tags {
		if t.Count == 0 {
			continue
		}
		v, err := t.Int(0)
		if err != nil {
			continue
		}
		switch t.Id {
		case tagImageWidth:
			p.Width = v
		case tagImageLength:
			p.Height = v
		case tagSamplesPerPixel:
			p.Samples = v
		}
	}
	return p
}

// OpenTIFF opens path and indexes its pages. A non-nil cache is consulted
// before walking the directory chain and updated after a fresh walk.
func OpenTIFF(path string, cache IndexCache) (*TIFFDecoder, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return nil, &FileError{Path: path, Err: errors.New("not a regular file")}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	hdr, order, first, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, &FormatError{Path: path, Page: -1, Err: err}
	}

	key := KeyFor(path, fi)
	var pages []Page
	if cache != nil {
		if cached, ok := cache.LoadIndex(key); ok && len(cached) > 0 {
			pages = cached
		}
	}
	if pages == nil {
		pages, err = walkPages(f, order, first, fi.Size())
		if err != nil {
			f.Close()
			return nil, &FormatError{Path: path, Page: -1, Err: err}
		}
		if cache != nil {
			// A failed save only costs the next open a fresh walk.
			_ = cache.SaveIndex(key, pages)
		}
	}

	return &TIFFDecoder{
		file:   f,
		size:   fi.Size(),
		order:  order,
		header: hdr,
		pages:  pages,
	}, nil
}

// Pages returns a copy of the page table.
func (d *TIFFDecoder) Pages() []Page {
	out := make([]Page, len(d.pages))
	copy(out, d.pages)
	return out
}

// PageCount implements Decoder.
func (d *TIFFDecoder) PageCount() int {
	return len(d.pages)
}

// Shape implements Decoder.
func (d *TIFFDecoder) Shape() (int, int) {
	if len(d.pages) == 0 {
		return 0, 0
	}
	return d.pages[0].Width, d.pages[0].Height
}

// pageReaderAt presents the file with its first-directory offset
// replaced, so a single-image decoder sees page i as the first page.
type pageReaderAt struct {
	ra     io.ReaderAt
	header [headerSize]byte
}

func (p *pageReaderAt) ReadAt(b []byte, off int64) (int, error) {
	n, err := p.ra.ReadAt(b, off)
	if off < headerSize {
		copy(b[:n], p.header[off:])
	}
	return n, err
}

// DecodePage implements Decoder.
func (d *TIFFDecoder) DecodePage(i int) (image.Image, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, &IndexError{Index: i, Count: len(d.pages)}
	}
	hdr := d.header
	d.order.PutUint32(hdr[4:8], uint32(d.pages[i].Offset))
	r := io.NewSectionReader(&pageReaderAt{ra: d.file, header: hdr}, 0, d.size)
	return tiff.Decode(r)
}

// Close implements Decoder.
func (d *TIFFDecoder) Close() error {
	return d.file.Close()
}
