// Package ui is the Fyne front end of fystack: a main window holding the
// stack viewer with menus, a toolbar, a status bar and playback.
package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"fystack/internal/bulk"
	"fystack/internal/config"
	"fystack/internal/logging"
	"fystack/internal/nav"
	"fystack/internal/openfile"
	"fystack/internal/playback"
	"fystack/internal/service"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	appID = "io.github.fystack"

	// DefaultSkipCount is the number of frames PageUp/PageDown move by.
	DefaultSkipCount = 10
)

// App represents the whole application with its window, widgets and state.
type App struct {
	app        fyne.App
	win        fyne.Window
	mainModKey fyne.KeyModifier

	viewer  *StackViewer
	ctrl    *nav.Controller
	player  *playback.Player
	picker  *filePicker
	Service *service.Service

	flags     *config.Flags
	logger    func(string)
	stdout    io.Writer
	skipCount int

	statusLabel *widget.Label
	statusLog   *StatusLog
	toolBar     *widget.Toolbar
	playAction  *widget.ToolbarAction
	mainMenu    *fyne.MainMenu
	recentItem  *fyne.MenuItem

	done     chan struct{}
	stopOnce sync.Once
}

// newApp builds the main window on fa. Nothing is opened yet.
func newApp(fa fyne.App, flags *config.Flags, svc *service.Service, logger func(string), stdout io.Writer) *App {
	if flags == nil {
		flags = config.NewFlags()
	}
	if stdout == nil {
		stdout = io.Discard
	}
	a := &App{
		app:       fa,
		Service:   svc,
		flags:     flags,
		logger:    logger,
		stdout:    stdout,
		skipCount: DefaultSkipCount,
		player:    playback.NewPlayer(flags.PlayInterval, flags.Loop),
		done:      make(chan struct{}),
	}
	if runtime.GOOS == "darwin" {
		a.mainModKey = fyne.KeyModifierSuper
	} else {
		a.mainModKey = fyne.KeyModifierControl
	}

	a.win = fa.NewWindow("fystack")
	a.picker = &filePicker{win: a.win, startDir: func() string { return recentDir(a.Service.RecentStacks()) }}

	a.viewer = NewStackViewer(a.openStack, a.addLogMessage)
	a.viewer.OnError = a.showError
	a.viewer.ZoomPanArea().OnClick = a.showPixel
	a.ctrl = a.viewer.Controller()
	a.ctrl.OnChanged(a.updateStatusBar)
	a.ctrl.OnChanged(a.updateTitle)

	a.win.SetContent(a.buildMainUI())
	a.buildKeyboardShortcuts()
	a.win.SetCloseIntercept(func() {
		a.shutdown()
		a.win.Close()
	})
	a.win.Resize(fyne.NewSize(900, 700))
	return a
}

// CreateApplication is the GUI entrypoint. path may be empty, in which case
// the file picker is shown. It blocks until the window is closed.
func CreateApplication(flags *config.Flags, svc *service.Service, logger func(string), path string, stdout io.Writer) {
	fa := app.NewWithID(appID)
	fa.SetIcon(theme.FileImageIcon())
	fa.Settings().SetTheme(NewCompactTheme(fa.Settings().Theme()))

	a := newApp(fa, flags, svc, logger, stdout)
	a.win.SetMaster()
	a.win.CenterOnScreen()

	fa.Lifecycle().SetOnStarted(func() {
		a.start(path)
	})

	go a.pauser(time.NewTicker(a.player.Interval()))
	a.win.ShowAndRun()
	a.shutdown()
}

// openStack adapts the service to the viewer's OpenFunc.
func (a *App) openStack(path string) (nav.Source, error) {
	h, err := a.Service.OpenStack(path)
	if err != nil {
		return nil, err
	}
	a.refreshRecentMenu()
	return h, nil
}

// start opens path, or asks for a file when it is empty, and then reads
// the whole stack if load_all is set.
func (a *App) start(path string) {
	openfile.Resolve(path, a.picker, func(p string, err error) {
		if err != nil {
			if openfile.IsUserCancelled(err) {
				a.addLogMessage("No stack selected")
				return
			}
			a.showError(err)
			return
		}
		if !a.openPath(p) {
			return
		}
		if a.flags.LoadAll {
			a.loadAll()
		}
	})
}

func (a *App) openPath(path string) bool {
	if err := a.ctrl.Open(path); err != nil {
		a.showError(err)
		return false
	}
	return true
}

func (a *App) openDialog() {
	openfile.Resolve("", a.picker, func(p string, err error) {
		if err != nil {
			if !openfile.IsUserCancelled(err) {
				a.showError(err)
			}
			return
		}
		a.openPath(p)
	})
}

func (a *App) closeStack() {
	if a.ctrl.Loading() {
		return
	}
	a.player.Pause(false)
	a.updatePlayState()
	a.ctrl.Clear()
	a.updateStatusBar()
	a.updateTitle()
}

// loadAll reads every frame into memory behind a progress dialog and
// prints the resulting shape to stdout.
func (a *App) loadAll() {
	if !a.ctrl.HasStack() || a.ctrl.Loading() {
		return
	}
	a.player.Pause(true)
	a.updatePlayState()
	showBulkLoad(a.win, a.ctrl, func(arr *bulk.Array, err error) {
		a.player.ResumeAfterOperation()
		a.updatePlayState()
		switch {
		case bulk.IsCancelled(err):
			a.addLogMessage("Load all frames cancelled")
		case err != nil:
			a.showError(err)
		default:
			w, h, n := arr.Shape()
			fmt.Fprintf(a.stdout, "(%d, %d, %d)\n", w, h, n)
			a.addLogMessage(fmt.Sprintf("Loaded %d frames of %dx%d into memory", n, w, h))
		}
	})
}

func (a *App) togglePlay() {
	if !a.ctrl.HasStack() || a.ctrl.FrameCount() < 2 {
		return
	}
	a.player.Toggle()
	a.updatePlayState()
}

func (a *App) updatePlayState() {
	if a.playAction != nil {
		if a.player.IsPlaying() {
			a.playAction.SetIcon(theme.MediaPauseIcon())
		} else {
			a.playAction.SetIcon(theme.MediaPlayIcon())
		}
	}
	if a.toolBar != nil {
		a.toolBar.Refresh()
	}
	a.updateStatusBar()
}

// advance moves playback one frame on. Runs on the Fyne goroutine.
func (a *App) advance() {
	if !a.player.IsPlaying() || a.ctrl.Loading() {
		return
	}
	i, ok := a.ctrl.Index()
	if !ok {
		return
	}
	next, ok := playback.NextIndex(i, a.ctrl.FrameCount(), a.player.Loop())
	if !ok {
		a.player.Pause(false)
		a.updatePlayState()
		return
	}
	if err := a.ctrl.Seek(next); err != nil {
		a.player.Pause(false)
		a.updatePlayState()
		a.showError(err)
	}
}

func (a *App) pauser(ticker *time.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			if a.player.IsPlaying() {
				fyne.Do(a.advance)
			}
		}
	}
}

func (a *App) skipFrames(offset int) {
	i, ok := a.ctrl.Index()
	if !ok {
		return
	}
	target := i + offset
	if target < 0 {
		target = 0
	}
	if n := a.ctrl.FrameCount(); target >= n {
		target = n - 1
	}
	a.showError(a.ctrl.Seek(target))
}

// showPixel reports the raw value under a click.
func (a *App) showPixel(x, y float32) {
	f, err := a.ctrl.CurrentFrame()
	if err != nil {
		return
	}
	px, py := int(x), int(y)
	if px >= f.Width || py >= f.Height {
		return
	}
	if f.Channels == 1 {
		a.addLogMessage(fmt.Sprintf("(%d, %d) = %g", px, py, f.At(px, py, 0)))
		return
	}
	a.addLogMessage(fmt.Sprintf("(%d, %d) = [%g %g %g]", px, py, f.At(px, py, 0), f.At(px, py, 1), f.At(px, py, 2)))
}

// addLogMessage sends message to the logger and the status bar log.
func (a *App) addLogMessage(message string) {
	logging.Tee(a.logger, a.postStatus)(message)
}

func (a *App) postStatus(message string) {
	if a.statusLog != nil {
		fyne.Do(func() { a.statusLog.Add(message) })
	}
}

// showError reports err in a dialog. A nil err is ignored.
func (a *App) showError(err error) {
	if err == nil {
		return
	}
	a.addLogMessage(fmt.Sprintf("Error: %v", err))
	dialog.ShowError(err, a.win)
}

func (a *App) updateTitle() {
	src := a.ctrl.Stack()
	if src == nil {
		a.win.SetTitle("fystack")
		return
	}
	a.win.SetTitle(fmt.Sprintf("fystack - %s", filepath.Base(src.Path())))
}

func (a *App) updateStatusBar() {
	if a.statusLabel == nil {
		return
	}
	src := a.ctrl.Stack()
	if src == nil {
		a.statusLabel.SetText("No stack loaded")
		return
	}
	w, h := src.Shape()
	text := fmt.Sprintf("%s  |  %dx%d", src.Path(), w, h)
	if i, ok := a.ctrl.Index(); ok {
		text += fmt.Sprintf("  |  Frame %s", nav.FrameLabel(i, src.FrameCount()))
	}
	if a.player.IsPlaying() {
		text += "  |  Playing"
	}
	a.statusLabel.SetText(text)
}

func (a *App) refreshRecentMenu() {
	if a.recentItem == nil {
		return
	}
	var items []*fyne.MenuItem
	for _, p := range a.Service.RecentStacks() {
		p := p
		items = append(items, fyne.NewMenuItem(p, func() { a.openPath(p) }))
	}
	if len(items) == 0 {
		none := fyne.NewMenuItem("(none)", nil)
		none.Disabled = true
		items = append(items, none)
	} else {
		items = append(items, fyne.NewMenuItemSeparator(), fyne.NewMenuItem("Clear Recent", func() {
			a.Service.ClearRecent()
			a.refreshRecentMenu()
		}))
	}
	a.recentItem.ChildMenu = fyne.NewMenu("", items...)
	if a.mainMenu != nil {
		a.mainMenu.Refresh()
	}
}

func (a *App) buildToolbar() *widget.Toolbar {
	a.playAction = widget.NewToolbarAction(theme.MediaPlayIcon(), a.togglePlay)
	a.toolBar = widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.openDialog),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MediaSkipPreviousIcon(), func() { a.showError(a.ctrl.First()) }),
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() { a.showError(a.ctrl.Prev()) }),
		a.playAction,
		widget.NewToolbarAction(theme.NavigateNextIcon(), func() { a.showError(a.ctrl.Next()) }),
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() { a.showError(a.ctrl.Last()) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DownloadIcon(), a.loadAll),
		widget.NewToolbarAction(theme.ZoomFitIcon(), a.viewer.ZoomPanArea().Reset),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.HelpIcon(), a.showShortcuts),
	)
	return a.toolBar
}

func (a *App) buildStatusBar() fyne.CanvasObject {
	a.statusLabel = widget.NewLabel("No stack loaded")
	a.statusLabel.Truncation = fyne.TextTruncateEllipsis

	logLabel := widget.NewLabel("")
	logLabel.Truncation = fyne.TextTruncateEllipsis
	upBtn := widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
	downBtn := widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)
	a.statusLog = NewStatusLog(logLabel, upBtn, downBtn, DefaultMaxLogMessages)
	upBtn.OnTapped = a.statusLog.Previous
	downBtn.OnTapped = a.statusLog.Next
	upBtn.Disable()
	downBtn.Disable()

	return container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, container.NewHBox(upBtn, downBtn), a.statusLabel),
		logLabel,
	)
}

func (a *App) buildMainMenu() *fyne.MainMenu {
	a.recentItem = fyne.NewMenuItem("Open Recent", nil)
	a.refreshRecentMenu()

	a.mainMenu = fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("Open...", a.openDialog),
			a.recentItem,
			fyne.NewMenuItem("Close Stack", a.closeStack),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Load All Frames", a.loadAll),
		),
		fyne.NewMenu("View",
			fyne.NewMenuItem("First Frame", func() { a.showError(a.ctrl.First()) }),
			fyne.NewMenuItem("Previous Frame", func() { a.showError(a.ctrl.Prev()) }),
			fyne.NewMenuItem("Next Frame", func() { a.showError(a.ctrl.Next()) }),
			fyne.NewMenuItem("Last Frame", func() { a.showError(a.ctrl.Last()) }),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Play/Pause", a.togglePlay),
			fyne.NewMenuItem("Reset Zoom", a.viewer.ZoomPanArea().Reset),
		),
		fyne.NewMenu("Help",
			fyne.NewMenuItem("Keyboard Shortcuts", a.showShortcuts),
			fyne.NewMenuItem("About", func() {
				NewAbout(a.win, "About fystack", theme.FileImageIcon()).Show()
			}),
		),
	)
	return a.mainMenu
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.win.SetMainMenu(a.buildMainMenu())
	return container.NewBorder(
		a.buildToolbar(),   // Top
		a.buildStatusBar(), // Bottom
		nil,
		nil,
		a.viewer,
	)
}

// shutdown stops playback and closes the stack and the service.
func (a *App) shutdown() {
	a.stopOnce.Do(func() {
		close(a.done)
		a.player.Pause(false)
		if !a.ctrl.Loading() {
			a.ctrl.Clear()
		}
		if a.Service != nil {
			if err := a.Service.Close(); err != nil {
				a.addLogMessage(fmt.Sprintf("Error closing database: %v", err))
			}
		}
	})
}
