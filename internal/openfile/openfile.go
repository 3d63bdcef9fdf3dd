// Package openfile turns "the user wants to open something" into a
// validated path, asking a file picker when no path was given.
package openfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"fystack/internal/stack"
)

// ErrUserCancelled is returned when the picker was dismissed.
var ErrUserCancelled = errors.New("no file selected")

// Extensions lists the file extensions offered by pickers.
var Extensions = []string{".tif", ".tiff"}

// Picker asks the user for a file. An empty path with a nil error means
// the picker was dismissed.
type Picker interface {
	PickFile(done func(path string, err error))
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(done func(path string, err error))

// PickFile implements Picker.
func (f PickerFunc) PickFile(done func(path string, err error)) {
	f(done)
}

// IsUserCancelled reports whether err means the user dismissed the picker.
func IsUserCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}

// HasStackExtension reports whether name ends in one of Extensions.
func HasStackExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Validate checks that path names an existing regular file.
func Validate(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return &stack.FileError{Path: path, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return &stack.FileError{Path: path, Err: errors.New("not a regular file")}
	}
	return nil
}

// Resolve calls done with path when it is non-empty, or with whatever the
// picker returns otherwise. Either way the path is validated first.
// done may run later, on whatever goroutine the picker calls back on.
func Resolve(path string, picker Picker, done func(path string, err error)) {
	finish := func(p string, err error) {
		if err != nil {
			done("", err)
			return
		}
		if p == "" {
			done("", ErrUserCancelled)
			return
		}
		if err := Validate(p); err != nil {
			done("", err)
			return
		}
		done(p, nil)
	}

	if path != "" {
		finish(path, nil)
		return
	}
	if picker == nil {
		done("", errors.New("openfile: no path given and no picker available"))
		return
	}
	picker.PickFile(finish)
}
