package stack

import (
	"os"
	"path/filepath"
)

// Page locates one image directory inside a TIFF file.
type Page struct {
	Offset  int64 `json:"offset"`
	Width   int   `json:"width"`
	Height  int   `json:"height"`
	Samples int   `json:"samples"`
}

// IndexKey identifies one version of a file on disk.
type IndexKey struct {
	Path    string
	Size    int64
	ModTime int64
}

// KeyFor builds the IndexKey for path from its current file info.
func KeyFor(path string, fi os.FileInfo) IndexKey {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return IndexKey{Path: abs, Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}
}

// IndexCache stores page tables so reopening a large stack does not walk
// the directory chain again. Implementations must treat a key whose size
// or modification time differs from the stored one as a miss.
type IndexCache interface {
	LoadIndex(key IndexKey) ([]Page, bool)
	SaveIndex(key IndexKey, pages []Page) error
}
