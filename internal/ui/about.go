package ui

import (
	"fystack/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

type About struct {
	title     string
	parent    fyne.Window
	container *fyne.Container
	d         dialog.Dialog
}

func NewAbout(parent fyne.Window, title string, icon fyne.Resource) *About {
	a := &About{
		title:  title,
		parent: parent,
	}

	img := canvas.NewImageFromResource(icon)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(96, 96))

	vbox := container.NewVBox(
		img,
		widget.NewLabelWithStyle("fystack", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Multi-page TIFF stack viewer", fyne.TextAlignCenter, fyne.TextStyle{}),
		widget.NewLabelWithStyle("v"+config.Version+" | License: MIT", fyne.TextAlignCenter, fyne.TextStyle{}),
	)

	ok := container.NewHBox(
		layout.NewSpacer(),
		widget.NewButton("OK", func() { a.Hide() }),
		layout.NewSpacer(),
	)

	a.container = container.NewBorder(nil, ok, nil, nil, vbox)

	return a
}

func (a *About) Hide() {
	if a.d != nil {
		a.d.Hide()
	}
}

func (a *About) Show() {
	a.d = dialog.NewCustomWithoutButtons(a.title, a.container, a.parent)
	a.d.Show()
}
