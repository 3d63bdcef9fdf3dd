// Package scan walks a directory tree looking for image stacks.
package scan

import (
	"fmt"
	"os"
	"path/filepath"

	"fystack/internal/openfile"
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// FileItem is one stack file found by Run.
type FileItem struct {
	Path string
	Info os.FileInfo
}

// FileItems is a slice of FileItem
type FileItems []FileItem

// NewFileItem creates a new FileItem
func NewFileItem(p string, info os.FileInfo) FileItem {
	return FileItem{
		Path: p,
		Info: info,
	}
}

// FileScannerImpl is the filesystem-backed scanner.
type FileScannerImpl struct{}

// Run implements the scanner used by the service layer.
func (FileScannerImpl) Run(dir string, logger LoggerFunc) <-chan FileItem {
	return Run(dir, logger)
}

// Run walks dir recursively in the background and sends every non-empty
// stack file on the returned channel, which is closed when the walk ends.
// Paths are absolute.
func Run(dir string, logger LoggerFunc) <-chan FileItem {
	out := make(chan FileItem)
	go func() {
		defer close(out)
		root, err := filepath.Abs(dir)
		if err != nil {
			logf(logger, "Cannot resolve %s: %v", dir, err)
			return
		}
		err = filepath.Walk(root, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				logf(logger, "Skipping %s: %v", p, err)
				if fi != nil && fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if fi.Mode().IsRegular() && fi.Size() > 0 && IsStack(p) {
				out <- NewFileItem(p, fi)
			}
			return nil
		})
		if err != nil {
			logf(logger, "Scan of %s stopped: %v", root, err)
		}
	}()
	return out
}

func logf(logger LoggerFunc, format string, args ...interface{}) {
	if logger != nil {
		logger(fmt.Sprintf(format, args...))
	}
}

// IsStack reports whether a file name has a TIFF stack extension.
func IsStack(n string) bool {
	return openfile.HasStackExtension(n)
}
