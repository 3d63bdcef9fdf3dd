package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

func (a *App) buildKeyboardShortcuts() {
	// ctrl+q to quit application
	a.win.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: a.mainModKey,
	}, func(_ fyne.Shortcut) { a.app.Quit() })

	// ctrl+o to open a stack
	a.win.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyO,
		Modifier: a.mainModKey,
	}, func(_ fyne.Shortcut) { a.openDialog() })

	a.win.Canvas().SetOnTypedKey(a.handleKey)
}

func (a *App) handleKey(key *fyne.KeyEvent) {
	switch key.Name {
	case fyne.KeyRight:
		a.showError(a.ctrl.Next())
	case fyne.KeyLeft:
		a.showError(a.ctrl.Prev())
	case fyne.KeyP, fyne.KeySpace:
		a.togglePlay()
	case fyne.KeyPageUp, fyne.KeyUp:
		a.skipFrames(-a.skipCount)
	case fyne.KeyPageDown, fyne.KeyDown:
		a.skipFrames(a.skipCount)
	case fyne.KeyHome:
		a.showError(a.ctrl.First())
	case fyne.KeyEnd:
		a.showError(a.ctrl.Last())
	case fyne.KeyL:
		a.loadAll()
	case fyne.KeyZ:
		a.viewer.ZoomPanArea().Reset()
	// close dialogs with esc key
	case fyne.KeyEscape:
		if top := a.win.Canvas().Overlays().Top(); top != nil {
			top.Hide()
		}
	}
}

var shortcutTable = [][2]string{
	{"Open Stack", "Ctrl+O"},
	{"Quit Application", "Ctrl+Q"},
	{"Next Frame", "Arrow Right"},
	{"Previous Frame", "Arrow Left"},
	{"Skip 10 Frames Back", "Page Up / Arrow Up"},
	{"Skip 10 Frames Forward", "Page Down / Arrow Down"},
	{"First Frame", "Home"},
	{"Last Frame", "End"},
	{"Play / Pause", "P or Space"},
	{"Load All Frames", "L"},
	{"Reset Zoom", "Z or double click"},
	{"Close Dialog", "Esc"},
}

func (a *App) showShortcuts() {
	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(shortcutTable) + 1, 2 }, // +1 for header row
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle.Bold = true
				label.SetText([2]string{"Description", "Shortcut"}[id.Col])
				return
			}
			label.TextStyle.Bold = false
			label.SetText(shortcutTable[id.Row-1][id.Col])
		},
	)
	table.SetColumnWidth(0, 250)
	table.SetColumnWidth(1, 200)
	win.SetContent(table)
	win.Resize(fyne.NewSize(470, 440))
	win.Show()
}
