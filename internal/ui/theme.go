package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// compactTheme wraps an existing theme and reduces padding so the
// navigation row takes little room under the image.
type compactTheme struct {
	fyne.Theme
}

var _ fyne.Theme = (*compactTheme)(nil)

// Size overrides padding and inner padding; everything else comes from
// the wrapped theme.
func (t *compactTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 2.0
	case theme.SizeNameInnerPadding:
		return 4.0
	}
	return t.Theme.Size(name)
}

// NewCompactTheme creates a compact wrapper around base.
func NewCompactTheme(base fyne.Theme) fyne.Theme {
	return &compactTheme{Theme: base}
}
