package stack

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when a frame is requested from a closed handle.
var ErrClosed = errors.New("stack: handle is closed")

// FileError reports a path that does not exist, is not a regular file,
// or cannot be opened for reading.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("stack: cannot open %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// FormatError reports a file the decoder rejected. Page is -1 when the
// failure concerns the file as a whole rather than a single page.
type FormatError struct {
	Path string
	Page int
	Err  error
}

func (e *FormatError) Error() string {
	if e.Page >= 0 {
		return fmt.Sprintf("stack: %s page %d: %v", e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("stack: %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IndexError reports a frame index outside [0, Count).
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("stack: frame index %d out of range [0, %d)", e.Index, e.Count)
}

// IsFileError checks if err is, or wraps, a *FileError.
func IsFileError(err error) bool {
	var fe *FileError
	return errors.As(err, &fe)
}

// IsFormatError checks if err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
