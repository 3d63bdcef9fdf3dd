// Package nav keeps the current frame of an open stack in step with a
// viewer and its navigation controls. It knows nothing about the GUI
// toolkit; the ui package supplies the Viewer and Controls.
package nav

import (
	"context"
	"errors"
	"fmt"
	"image"

	"fystack/internal/bulk"
	"fystack/internal/pixel"
	"fystack/internal/stack"

	"go.uber.org/atomic"
)

var (
	// ErrNoStack is returned by frame accessors when nothing is loaded.
	ErrNoStack = errors.New("no image stack loaded")

	// ErrBusy is returned when the stack is held by a bulk load.
	ErrBusy = errors.New("a bulk load is in progress")
)

// Viewer displays one image at a time.
type Viewer interface {
	SetImage(img image.Image)
	ClearImage()
}

// Controls is the navigation bar: slider, prev/next buttons and label.
type Controls interface {
	SyncControls(state ControlState)
}

// Source is an open stack. *stack.Handle satisfies it.
type Source interface {
	Path() string
	FrameCount() int
	Shape() (width, height int)
	ReadFrame(i int) (*stack.Frame, error)
	Close() error
}

// OpenFunc opens the stack at path.
type OpenFunc func(path string) (Source, error)

// LoggerFunc receives status messages.
type LoggerFunc func(message string)

// Controller owns at most one open stack and the index of the frame on
// display. All methods must be called from one goroutine, except
// BulkLoad.Run and LoadAll, which may run on a worker.
type Controller struct {
	viewer   Viewer
	controls Controls
	open     OpenFunc
	logger   LoggerFunc

	src      Source
	index    int
	hasIndex bool

	loading *atomic.Bool

	onChanged      []func()
	onFrameChanged []func(index int)
}

// NewController creates an empty controller. controls, open and logger
// may be nil.
func NewController(viewer Viewer, controls Controls, open OpenFunc, logger LoggerFunc) *Controller {
	return &Controller{
		viewer:   viewer,
		controls: controls,
		open:     open,
		logger:   logger,
		loading:  atomic.NewBool(false),
	}
}

func (c *Controller) logMessage(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger(fmt.Sprintf(format, args...))
	}
}

// OnChanged registers fn to run after every frame change.
func (c *Controller) OnChanged(fn func()) {
	c.onChanged = append(c.onChanged, fn)
}

// OnFrameChanged registers fn to receive the new index after every frame change.
func (c *Controller) OnFrameChanged(fn func(index int)) {
	c.onFrameChanged = append(c.onFrameChanged, fn)
}

// HasStack reports whether a stack is loaded.
func (c *Controller) HasStack() bool {
	return c.src != nil
}

// Stack returns the loaded stack or nil.
func (c *Controller) Stack() Source {
	return c.src
}

// Index returns the current frame index; ok is false when nothing is loaded.
func (c *Controller) Index() (index int, ok bool) {
	return c.index, c.hasIndex
}

// FrameCount returns the number of frames, or 0 when nothing is loaded.
func (c *Controller) FrameCount() int {
	if c.src == nil {
		return 0
	}
	return c.src.FrameCount()
}

// Loading reports whether a bulk load currently holds the stack.
func (c *Controller) Loading() bool {
	return c.loading.Load()
}

// Open opens path and, if its first frame can be shown, replaces the
// current stack. On any error the current stack is left as it was.
func (c *Controller) Open(path string) error {
	if c.open == nil {
		return errors.New("nav: no opener configured")
	}
	if c.loading.Load() {
		return ErrBusy
	}
	src, err := c.open(path)
	if err != nil {
		return err
	}
	return c.SetStack(src)
}

// SetStack takes ownership of src and shows its first frame. If that
// frame cannot be read, src is closed and the previous stack is kept.
func (c *Controller) SetStack(src Source) error {
	if c.loading.Load() {
		src.Close()
		return ErrBusy
	}
	f, err := src.ReadFrame(0)
	if err != nil {
		src.Close()
		return fmt.Errorf("reading first frame of %s: %w", src.Path(), err)
	}

	if c.src != nil {
		if err := c.src.Close(); err != nil {
			c.logMessage("Closing %s: %v", c.src.Path(), err)
		}
	}
	c.src = src
	c.show(0, f)
	w, h := src.Shape()
	c.logMessage("Opened %s (%dx%d, %d frames)", src.Path(), w, h, src.FrameCount())
	return nil
}

// Clear closes the stack and empties the viewer.
func (c *Controller) Clear() {
	if c.loading.Load() {
		c.logMessage("Clear ignored: %v", ErrBusy)
		return
	}
	if c.src != nil {
		if err := c.src.Close(); err != nil {
			c.logMessage("Closing %s: %v", c.src.Path(), err)
		}
	}
	c.src = nil
	c.index, c.hasIndex = 0, false
	c.viewer.ClearImage()
	if c.controls != nil {
		c.controls.SyncControls(ControlState{Visibility: ComputeVisibility(0)})
	}
}

// Seek shows frame i. Seeking with nothing loaded, out of range, or
// during a bulk load does nothing. A decode error leaves the display and
// index unchanged.
func (c *Controller) Seek(i int) error {
	if c.src == nil || c.loading.Load() {
		return nil
	}
	if i < 0 || i >= c.src.FrameCount() {
		return nil
	}
	f, err := c.src.ReadFrame(i)
	if err != nil {
		return err
	}
	c.show(i, f)
	return nil
}

// SeekSlider maps a one-based slider value to Seek.
func (c *Controller) SeekSlider(value int) error {
	return c.Seek(value - 1)
}

// Prev shows the previous frame.
func (c *Controller) Prev() error {
	if !c.hasIndex {
		return nil
	}
	return c.Seek(c.index - 1)
}

// Next shows the next frame.
func (c *Controller) Next() error {
	if !c.hasIndex {
		return nil
	}
	return c.Seek(c.index + 1)
}

// First shows frame 0.
func (c *Controller) First() error {
	return c.Seek(0)
}

// Last shows the final frame.
func (c *Controller) Last() error {
	return c.Seek(c.FrameCount() - 1)
}

// Frame decodes frame i without changing what is displayed.
func (c *Controller) Frame(i int) (*stack.Frame, error) {
	if c.src == nil {
		return nil, ErrNoStack
	}
	if n := c.src.FrameCount(); i < 0 || i >= n {
		return nil, &stack.IndexError{Index: i, Count: n}
	}
	return c.src.ReadFrame(i)
}

// CurrentFrame decodes the frame on display.
func (c *Controller) CurrentFrame() (*stack.Frame, error) {
	if !c.hasIndex {
		return nil, ErrNoStack
	}
	return c.Frame(c.index)
}

// BulkLoad is a bulk load that holds the controller's stack. Navigation
// stays locked out from BeginLoad until Run returns.
type BulkLoad struct {
	c   *Controller
	src Source
}

// BeginLoad locks navigation out and returns the load to run. Call it on
// the controller's goroutine; Run may then be called on a worker.
func (c *Controller) BeginLoad() (*BulkLoad, error) {
	if !c.loading.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	if c.src == nil {
		c.loading.Store(false)
		return nil, ErrNoStack
	}
	return &BulkLoad{c: c, src: c.src}, nil
}

// Run reads the whole stack into memory and releases the lock-out.
// It must be called exactly once.
func (l *BulkLoad) Run(ctx context.Context, progress bulk.ProgressFunc) (*bulk.Array, error) {
	defer l.c.loading.Store(false)
	return bulk.LoadAll(ctx, l.src, progress)
}

// LoadAll reads the whole stack into memory with navigation locked out.
func (c *Controller) LoadAll(ctx context.Context, progress bulk.ProgressFunc) (*bulk.Array, error) {
	l, err := c.BeginLoad()
	if err != nil {
		return nil, err
	}
	return l.Run(ctx, progress)
}

func (c *Controller) show(i int, f *stack.Frame) {
	c.viewer.SetImage(pixel.ToDisplayBuffer(f))
	c.index, c.hasIndex = i, true

	if c.controls != nil {
		c.controls.SyncControls(stateFor(i, c.src.FrameCount()))
	}
	for _, fn := range c.onChanged {
		fn()
	}
	for _, fn := range c.onFrameChanged {
		fn(i)
	}
}
