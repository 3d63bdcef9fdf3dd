package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	defaultMinZoom        float32 = 0.05
	defaultMaxZoom        float32 = 40.0
	defaultZoomScrollStep float32 = 0.1 // Zoom step for scroll events
)

// ZoomPanArea displays one image with mouse wheel zoom and drag to pan.
// Replacing the image with one of the same size keeps the current view,
// so stepping through a stack does not lose the zoomed region.
type ZoomPanArea struct {
	widget.BaseWidget

	img    image.Image
	raster *canvas.Raster

	zoomFactor float32
	panOffset  fyne.Position
	needsFit   bool // fit to view at the next layout

	minZoom float32
	maxZoom float32

	isPanning    bool
	lastMousePos fyne.Position

	OnInteraction func()           // user zoomed or started a pan
	OnClick       func(x, y float32) // tap position in image pixels
}

// NewZoomPanArea creates an empty ZoomPanArea.
func NewZoomPanArea() *ZoomPanArea {
	zpa := &ZoomPanArea{
		zoomFactor: 1.0,
		minZoom:    defaultMinZoom,
		maxZoom:    defaultMaxZoom,
	}
	zpa.raster = canvas.NewRaster(zpa.draw)
	zpa.ExtendBaseWidget(zpa)
	return zpa
}

// Image returns the image on display, or nil.
func (zpa *ZoomPanArea) Image() image.Image {
	return zpa.img
}

// ZoomFactor returns the current scale from image to screen pixels.
func (zpa *ZoomPanArea) ZoomFactor() float32 {
	return zpa.zoomFactor
}

// SetImage shows img. The view is refit only when the image size changes.
func (zpa *ZoomPanArea) SetImage(img image.Image) {
	sameSize := zpa.img != nil && img != nil && zpa.img.Bounds().Size() == img.Bounds().Size()
	zpa.img = img
	if sameSize {
		zpa.Refresh()
		return
	}
	zpa.Reset()
}

// ClearImage removes the image.
func (zpa *ZoomPanArea) ClearImage() {
	zpa.img = nil
	zpa.Reset()
}

// Reset fits the whole image into the view and centres it.
func (zpa *ZoomPanArea) Reset() {
	zpa.fit(zpa.Size())
	zpa.Refresh()
}

func (zpa *ZoomPanArea) fit(view fyne.Size) {
	zpa.panOffset = fyne.Position{}
	if zpa.img == nil || view.Width <= 0 || view.Height <= 0 {
		zpa.zoomFactor = 1.0
		zpa.needsFit = zpa.img != nil
		return
	}
	b := zpa.img.Bounds()
	imgW, imgH := float32(b.Dx()), float32(b.Dy())

	zpa.zoomFactor = view.Width / imgW
	if zh := view.Height / imgH; zh < zpa.zoomFactor {
		zpa.zoomFactor = zh
	}
	zpa.panOffset.X = (view.Width - imgW*zpa.zoomFactor) / 2
	zpa.panOffset.Y = (view.Height - imgH*zpa.zoomFactor) / 2
	zpa.needsFit = false
}

// ImagePoint converts a position in the widget to image pixel coordinates.
func (zpa *ZoomPanArea) ImagePoint(pos fyne.Position) (float32, float32) {
	return (pos.X - zpa.panOffset.X) / zpa.zoomFactor, (pos.Y - zpa.panOffset.Y) / zpa.zoomFactor
}

// draw is the rendering function for the canvas.Raster.
func (zpa *ZoomPanArea) draw(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if zpa.img == nil || w <= 0 || h <= 0 {
		return dst
	}

	// Raster sizes are in device pixels; pan and zoom are in canvas units.
	scale := float32(1)
	if size := zpa.Size(); size.Width > 0 {
		scale = float32(w) / size.Width
	}
	src := zpa.img.Bounds()
	inv := 1 / (zpa.zoomFactor * scale)
	offX, offY := zpa.panOffset.X*scale, zpa.panOffset.Y*scale

	for dy := 0; dy < h; dy++ {
		sy := (float32(dy) - offY) * inv
		if sy < 0 || sy >= float32(src.Dy()) {
			continue
		}
		for dx := 0; dx < w; dx++ {
			sx := (float32(dx) - offX) * inv
			if sx < 0 || sx >= float32(src.Dx()) {
				continue
			}
			dst.Set(dx, dy, zpa.img.At(src.Min.X+int(sx), src.Min.Y+int(sy)))
		}
	}
	return dst
}

// CreateRenderer is a Fyne lifecycle method.
func (zpa *ZoomPanArea) CreateRenderer() fyne.WidgetRenderer {
	return &zoomPanAreaRenderer{zpa: zpa}
}

// Scrolled zooms around the view centre.
func (zpa *ZoomPanArea) Scrolled(ev *fyne.ScrollEvent) {
	if zpa.img == nil {
		return
	}
	if zpa.OnInteraction != nil {
		zpa.OnInteraction()
	}

	// ScrollEvent.Position is unreliable on some drivers.
	centreX, centreY := zpa.Size().Width/2, zpa.Size().Height/2
	imgX := (centreX - zpa.panOffset.X) / zpa.zoomFactor
	imgY := (centreY - zpa.panOffset.Y) / zpa.zoomFactor

	if ev.Scrolled.DY < 0 {
		zpa.zoomFactor /= 1.0 + defaultZoomScrollStep
	} else if ev.Scrolled.DY > 0 {
		zpa.zoomFactor *= 1.0 + defaultZoomScrollStep
	}
	if zpa.zoomFactor < zpa.minZoom {
		zpa.zoomFactor = zpa.minZoom
	}
	if zpa.zoomFactor > zpa.maxZoom {
		zpa.zoomFactor = zpa.maxZoom
	}

	zpa.panOffset.X = centreX - imgX*zpa.zoomFactor
	zpa.panOffset.Y = centreY - imgY*zpa.zoomFactor
	zpa.Refresh()
}

// Tapped reports the click position in image coordinates.
func (zpa *ZoomPanArea) Tapped(ev *fyne.PointEvent) {
	if zpa.img == nil || zpa.OnClick == nil {
		return
	}
	x, y := zpa.ImagePoint(ev.Position)
	b := zpa.img.Bounds()
	if x < 0 || y < 0 || x >= float32(b.Dx()) || y >= float32(b.Dy()) {
		return
	}
	zpa.OnClick(x, y)
}

// DoubleTapped fits the image back into the view.
func (zpa *ZoomPanArea) DoubleTapped(_ *fyne.PointEvent) {
	zpa.Reset()
}

// MouseDown starts panning.
func (zpa *ZoomPanArea) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	if zpa.OnInteraction != nil {
		zpa.OnInteraction()
	}
	zpa.isPanning = true
	zpa.lastMousePos = ev.Position
}

// MouseUp stops panning.
func (zpa *ZoomPanArea) MouseUp(_ *desktop.MouseEvent) {
	zpa.isPanning = false
}

// Dragged pans the image.
func (zpa *ZoomPanArea) Dragged(ev *fyne.DragEvent) {
	if !zpa.isPanning {
		zpa.isPanning = true
		zpa.lastMousePos = ev.Position.Subtract(ev.Dragged)
	}
	zpa.panOffset = zpa.panOffset.Add(ev.Position.Subtract(zpa.lastMousePos))
	zpa.lastMousePos = ev.Position
	zpa.Refresh()
}

// DragEnd finalizes panning.
func (zpa *ZoomPanArea) DragEnd() {
	zpa.isPanning = false
}

type zoomPanAreaRenderer struct{ zpa *ZoomPanArea }

func (r *zoomPanAreaRenderer) Layout(size fyne.Size) {
	if r.zpa.needsFit {
		r.zpa.fit(size)
	}
	r.zpa.raster.Resize(size)
}
func (r *zoomPanAreaRenderer) MinSize() fyne.Size           { return fyne.NewSize(100, 100) }
func (r *zoomPanAreaRenderer) Refresh()                     { canvas.Refresh(r.zpa.raster) }
func (r *zoomPanAreaRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.zpa.raster} }
func (r *zoomPanAreaRenderer) Destroy()                     {}

var _ fyne.Widget = (*ZoomPanArea)(nil)
var _ fyne.Scrollable = (*ZoomPanArea)(nil)
var _ fyne.Draggable = (*ZoomPanArea)(nil)
var _ fyne.Tappable = (*ZoomPanArea)(nil)
var _ fyne.DoubleTappable = (*ZoomPanArea)(nil)
var _ desktop.Mouseable = (*ZoomPanArea)(nil)
