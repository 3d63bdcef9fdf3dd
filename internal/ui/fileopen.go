package ui

import (
	"path/filepath"

	"fystack/internal/openfile"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// filePicker shows the Fyne open dialog filtered to stack files.
type filePicker struct {
	win      fyne.Window
	startDir func() string // directory the dialog opens in, may return ""
}

var _ openfile.Picker = (*filePicker)(nil)

// PickFile implements openfile.Picker. Dismissing the dialog reports an
// empty path.
func (p *filePicker) PickFile(done func(path string, err error)) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			done("", err)
			return
		}
		if reader == nil {
			done("", nil)
			return
		}
		path := reader.URI().Path()
		reader.Close()
		done(path, nil)
	}, p.win)

	fd.SetFilter(storage.NewExtensionFileFilter(openfile.Extensions))
	if p.startDir != nil {
		if dir := p.startDir(); dir != "" {
			if l, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
				fd.SetLocation(l)
			}
		}
	}
	fd.Resize(fyne.NewSize(800, 600))
	fd.Show()
}

// recentDir returns the directory of the first existing path in paths.
func recentDir(paths []string) string {
	for _, p := range paths {
		if openfile.Validate(p) == nil {
			return filepath.Dir(p)
		}
	}
	return ""
}
