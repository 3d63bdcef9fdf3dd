package ui

import (
	"context"
	"fmt"

	"fystack/internal/bulk"
	"fystack/internal/nav"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// showBulkLoad reads every frame of the controller's stack on a worker
// goroutine while a progress dialog is up. Closing the dialog cancels the
// load. Navigation is locked out before it returns. done runs on the Fyne
// goroutine once the load has finished.
func showBulkLoad(win fyne.Window, ctrl *nav.Controller, done func(arr *bulk.Array, err error)) {
	load, err := ctrl.BeginLoad()
	if err != nil {
		if done != nil {
			done(nil, err)
		}
		return
	}
	total := ctrl.FrameCount()
	bar := widget.NewProgressBar()
	bar.Max = float64(total)
	msg := widget.NewLabel(fmt.Sprintf("Reading %d frames...", total))

	ctx, cancel := context.WithCancel(context.Background())
	d := dialog.NewCustom("Load All Frames", "Cancel", container.NewVBox(msg, bar), win)
	d.SetOnClosed(cancel)
	d.Resize(fyne.NewSize(360, 140))
	d.Show()

	go func() {
		arr, err := load.Run(ctx, func(n, _ int) {
			fyne.Do(func() { bar.SetValue(float64(n)) })
		})
		cancel()
		fyne.Do(func() {
			d.Hide()
			if done != nil {
				done(arr, err)
			}
		})
	}()
}
