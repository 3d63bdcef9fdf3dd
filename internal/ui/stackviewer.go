package ui

import (
	"image"

	"fystack/internal/nav"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// StackViewer is the stack widget: frame label on top, the zoomable
// image in the middle and prev/slider/next underneath. The navigation
// row and label are only shown for stacks with more than one frame.
type StackViewer struct {
	widget.BaseWidget

	ctrl *nav.Controller
	zpa  *ZoomPanArea

	label   *widget.Label
	slider  *widget.Slider
	prevBtn *widget.Button
	nextBtn *widget.Button
	navRow  *fyne.Container

	syncing bool // SyncControls is moving the slider

	// OnError receives navigation errors such as undecodable frames.
	OnError func(err error)
}

// NewStackViewer creates an empty viewer. open is used by Controller().Open.
func NewStackViewer(open nav.OpenFunc, logger nav.LoggerFunc) *StackViewer {
	sv := &StackViewer{zpa: NewZoomPanArea()}

	sv.label = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Monospace: true})
	sv.slider = widget.NewSlider(1, 1)
	sv.slider.Step = 1
	sv.slider.OnChanged = func(v float64) {
		if sv.syncing {
			return
		}
		sv.report(sv.ctrl.SeekSlider(int(v + 0.5)))
	}
	sv.prevBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() { sv.report(sv.ctrl.Prev()) })
	sv.nextBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() { sv.report(sv.ctrl.Next()) })
	sv.navRow = container.NewBorder(nil, nil, sv.prevBtn, sv.nextBtn, sv.slider)

	sv.ctrl = nav.NewController(sv, sv, open, logger)
	sv.SyncControls(nav.ControlState{Visibility: nav.ComputeVisibility(0)})
	sv.ExtendBaseWidget(sv)
	return sv
}

// Controller returns the navigation controller driving this viewer.
func (sv *StackViewer) Controller() *nav.Controller {
	return sv.ctrl
}

// ZoomPanArea returns the image area.
func (sv *StackViewer) ZoomPanArea() *ZoomPanArea {
	return sv.zpa
}

func (sv *StackViewer) report(err error) {
	if err != nil && sv.OnError != nil {
		sv.OnError(err)
	}
}

// SetImage implements nav.Viewer.
func (sv *StackViewer) SetImage(img image.Image) {
	sv.zpa.SetImage(img)
}

// ClearImage implements nav.Viewer.
func (sv *StackViewer) ClearImage() {
	sv.zpa.ClearImage()
}

// SyncControls implements nav.Controls.
func (sv *StackViewer) SyncControls(s nav.ControlState) {
	sv.syncing = true
	defer func() { sv.syncing = false }()

	if s.Max >= s.Min && s.Max > 0 {
		sv.slider.Min = float64(s.Min)
		sv.slider.Max = float64(s.Max)
		sv.slider.SetValue(float64(s.Value))
		sv.slider.Refresh()
	}
	sv.label.SetText(s.Label)

	setVisible(sv.label, s.Visibility.Label)
	setVisible(sv.slider, s.Visibility.Slider)
	setVisible(sv.prevBtn, s.Visibility.Buttons)
	setVisible(sv.nextBtn, s.Visibility.Buttons)
	setVisible(sv.navRow, s.Visibility.Slider || s.Visibility.Buttons)
}

func setVisible(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}

// CreateRenderer is a Fyne lifecycle method.
func (sv *StackViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(sv.label, sv.navRow, nil, nil, sv.zpa))
}

var _ fyne.Widget = (*StackViewer)(nil)
var _ nav.Viewer = (*StackViewer)(nil)
var _ nav.Controls = (*StackViewer)(nil)
