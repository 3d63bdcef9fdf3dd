// Package bulk reads every frame of a stack into one contiguous array.
package bulk

import (
	"context"
	"errors"
	"fmt"

	"fystack/internal/stack"
)

var (
	// ErrCancelled is returned when the caller cancels a load. It is a
	// normal outcome, not a failure.
	ErrCancelled = errors.New("bulk load cancelled")

	// ErrNotGrayscale is returned for stacks with more than one channel.
	ErrNotGrayscale = errors.New("bulk load supports single-channel stacks only")
)

// Source is the part of a stack handle the loader needs.
type Source interface {
	FrameCount() int
	Shape() (width, height int)
	ReadFrame(i int) (*stack.Frame, error)
}

// ProgressFunc is called after each frame with the number of frames done
// and the total.
type ProgressFunc func(done, total int)

// IsCancelled reports whether err means the load was cancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// LoadAll decodes frames 0..N-1 in order. Cancellation is checked before
// the first frame and after each one; a cancelled load returns
// ErrCancelled and no array.
func LoadAll(ctx context.Context, src Source, progress ProgressFunc) (*Array, error) {
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	n := src.FrameCount()
	w, h := src.Shape()
	arr := NewArray(w, h, n)

	for z := 0; z < n; z++ {
		f, err := src.ReadFrame(z)
		if err != nil {
			return nil, fmt.Errorf("loading frame %d of %d: %w", z+1, n, err)
		}
		if !f.IsGray() {
			return nil, fmt.Errorf("frame %d has %d channels: %w", z, f.Channels, ErrNotGrayscale)
		}
		if f.Width != w || f.Height != h {
			return nil, fmt.Errorf("frame %d is %dx%d, stack is %dx%d", z, f.Width, f.Height, w, h)
		}
		copy(arr.Slice(z), f.Pix)

		if progress != nil {
			progress(z+1, n)
		}
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
	}
	return arr, nil
}
