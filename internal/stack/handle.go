// Package stack gives random access to the frames of a multi-page image
// file. A Handle owns one open file and decodes a frame only when asked.
package stack

import (
	"fmt"
	"image"
	"sync"
)

// Decoder is the page-level contract a Handle is built on.
// PageCount may report 0 for files some decoders treat as single-image.
type Decoder interface {
	PageCount() int
	Shape() (width, height int)
	DecodePage(i int) (image.Image, error)
	Close() error
}

// Handle is an open image stack.
type Handle struct {
	path string
	dec  Decoder

	mu     sync.Mutex
	closed bool
}

// Open opens the TIFF stack at path. cache may be nil.
func Open(path string, cache IndexCache) (*Handle, error) {
	dec, err := OpenTIFF(path, cache)
	if err != nil {
		return nil, err
	}
	return NewHandle(path, dec), nil
}

// NewHandle wraps an already opened decoder.
func NewHandle(path string, dec Decoder) *Handle {
	return &Handle{path: path, dec: dec}
}

// Path returns the path the handle was opened with.
func (h *Handle) Path() string {
	return h.path
}

// FrameCount returns the number of frames, never less than 1.
func (h *Handle) FrameCount() int {
	n := h.dec.PageCount()
	if n < 1 {
		return 1
	}
	return n
}

// Shape returns the width and height of the first frame.
func (h *Handle) Shape() (int, int) {
	return h.dec.Shape()
}

// ReadFrame decodes frame i.
func (h *Handle) ReadFrame(i int) (*Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if n := h.FrameCount(); i < 0 || i >= n {
		return nil, &IndexError{Index: i, Count: n}
	}
	img, err := h.dec.DecodePage(i)
	if err != nil {
		return nil, &FormatError{Path: h.path, Page: i, Err: err}
	}
	return FrameFromImage(img), nil
}

// Close releases the underlying file. Calling Close more than once is safe.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if err := h.dec.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", h.path, err)
	}
	return nil
}
