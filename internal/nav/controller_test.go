package nav

import (
	"context"
	"errors"
	"image"
	"testing"

	"fystack/internal/bulk"
	"fystack/internal/pixel"
	"fystack/internal/stack"
	"fystack/internal/stacktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViewer struct {
	images  []image.Image
	cleared int
}

func (v *fakeViewer) SetImage(img image.Image) { v.images = append(v.images, img) }
func (v *fakeViewer) ClearImage()              { v.cleared++; v.images = append(v.images, nil) }

func (v *fakeViewer) last() image.Image {
	if len(v.images) == 0 {
		return nil
	}
	return v.images[len(v.images)-1]
}

type fakeControls struct {
	states []ControlState
}

func (c *fakeControls) SyncControls(s ControlState) { c.states = append(c.states, s) }

func (c *fakeControls) last() ControlState { return c.states[len(c.states)-1] }

// fakeSource is a stack of n 2x1 frames whose samples encode the index.
type fakeSource struct {
	path   string
	n      int
	reads  []int
	closed int
	failAt int
}

func newFakeSource(path string, n int) *fakeSource {
	return &fakeSource{path: path, n: n, failAt: -1}
}

func (s *fakeSource) Path() string      { return s.path }
func (s *fakeSource) FrameCount() int   { return s.n }
func (s *fakeSource) Shape() (int, int) { return 2, 1 }
func (s *fakeSource) Close() error      { s.closed++; return nil }
func (s *fakeSource) ReadFrame(i int) (*stack.Frame, error) {
	s.reads = append(s.reads, i)
	if i == s.failAt {
		return nil, errors.New("bad page")
	}
	f := stack.NewFrame(2, 1, 1)
	f.Pix[0] = 0
	f.Pix[1] = float64(i + 1)
	return f, nil
}

func newTestController(t *testing.T) (*Controller, *fakeViewer, *fakeControls) {
	t.Helper()
	v := &fakeViewer{}
	c := &fakeControls{}
	return NewController(v, c, nil, func(msg string) { t.Log(msg) }), v, c
}

func TestComputeVisibility(t *testing.T) {
	assert.Equal(t, Visibility{}, ComputeVisibility(0))
	assert.Equal(t, Visibility{}, ComputeVisibility(1))
	assert.Equal(t, Visibility{Slider: true, Buttons: true, Label: true}, ComputeVisibility(2))
	assert.Equal(t, Visibility{Slider: true, Buttons: true, Label: true}, ComputeVisibility(500))
}

func TestFrameLabel(t *testing.T) {
	assert.Equal(t, "1/10", FrameLabel(0, 10))
	assert.Equal(t, "10/10", FrameLabel(9, 10))
}

func TestEmptyControllerIgnoresNavigation(t *testing.T) {
	c, v, ctl := newTestController(t)

	assert.False(t, c.HasStack())
	_, ok := c.Index()
	assert.False(t, ok)
	assert.Equal(t, 0, c.FrameCount())

	require.NoError(t, c.Prev())
	require.NoError(t, c.Next())
	require.NoError(t, c.Seek(0))
	require.NoError(t, c.Last())
	assert.Empty(t, v.images)
	assert.Empty(t, ctl.states)

	_, err := c.Frame(0)
	assert.ErrorIs(t, err, ErrNoStack)
	_, err = c.CurrentFrame()
	assert.ErrorIs(t, err, ErrNoStack)
}

func TestSetStackShowsFirstFrame(t *testing.T) {
	c, v, ctl := newTestController(t)
	var plain, indexed []int
	c.OnChanged(func() { plain = append(plain, 1) })
	c.OnFrameChanged(func(i int) { indexed = append(indexed, i) })

	src := newFakeSource("a.tif", 10)
	require.NoError(t, c.SetStack(src))

	idx, ok := c.Index()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 10, c.FrameCount())
	assert.Len(t, v.images, 1)
	assert.Equal(t, ControlState{
		Min: 1, Max: 10, Value: 1, Label: "1/10",
		Visibility: Visibility{Slider: true, Buttons: true, Label: true},
	}, ctl.last())
	assert.Equal(t, []int{1}, plain)
	assert.Equal(t, []int{0}, indexed)
}

func TestSingleFrameHidesControls(t *testing.T) {
	c, v, ctl := newTestController(t)
	require.NoError(t, c.SetStack(newFakeSource("one.tif", 1)))

	assert.Equal(t, Visibility{}, ctl.last().Visibility)

	images, states := len(v.images), len(ctl.states)
	require.NoError(t, c.Next())
	require.NoError(t, c.Prev())
	idx, ok := c.Index()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Len(t, v.images, images)
	assert.Len(t, ctl.states, states)
}

func TestSeekBoundsAndObservers(t *testing.T) {
	c, v, ctl := newTestController(t)
	var seen []int
	c.OnFrameChanged(func(i int) { seen = append(seen, i) })
	src := newFakeSource("a.tif", 10)
	require.NoError(t, c.SetStack(src))

	require.NoError(t, c.Seek(9))
	idx, _ := c.Index()
	assert.Equal(t, 9, idx)
	assert.Equal(t, "10/10", ctl.last().Label)
	assert.Equal(t, 10, ctl.last().Value)

	images := len(v.images)
	require.NoError(t, c.Seek(10))
	require.NoError(t, c.Seek(-1))
	idx, _ = c.Index()
	assert.Equal(t, 9, idx)
	assert.Len(t, v.images, images, "out-of-range seek must not redraw")
	assert.Equal(t, []int{0, 9}, seen)
}

func TestPrevNextFirstLast(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetStack(newFakeSource("a.tif", 3)))

	require.NoError(t, c.Prev())
	idx, _ := c.Index()
	assert.Equal(t, 0, idx, "prev at frame 0 stays put")

	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	idx, _ = c.Index()
	assert.Equal(t, 2, idx, "next at the last frame stays put")

	require.NoError(t, c.First())
	idx, _ = c.Index()
	assert.Equal(t, 0, idx)

	require.NoError(t, c.Last())
	idx, _ = c.Index()
	assert.Equal(t, 2, idx)
}

func TestSeekSliderIsOneBased(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.SetStack(newFakeSource("a.tif", 5)))

	require.NoError(t, c.SeekSlider(5))
	idx, _ := c.Index()
	assert.Equal(t, 4, idx)
}

func TestSeekDisplaysConvertedFrame(t *testing.T) {
	c, v, _ := newTestController(t)
	src := newFakeSource("a.tif", 4)
	require.NoError(t, c.SetStack(src))
	require.NoError(t, c.Seek(2))

	f, err := src.ReadFrame(2)
	require.NoError(t, err)
	assert.Equal(t, pixel.ToDisplayBuffer(f), v.last())
}

func TestSeekDecodeErrorKeepsState(t *testing.T) {
	c, v, _ := newTestController(t)
	src := newFakeSource("a.tif", 4)
	src.failAt = 2
	require.NoError(t, c.SetStack(src))

	err := c.Seek(2)
	require.Error(t, err)
	idx, _ := c.Index()
	assert.Equal(t, 0, idx)
	assert.Len(t, v.images, 1)
}

func TestSetStackReplacesOnSuccessOnly(t *testing.T) {
	c, _, _ := newTestController(t)
	first := newFakeSource("first.tif", 3)
	require.NoError(t, c.SetStack(first))
	require.NoError(t, c.Seek(2))

	bad := newFakeSource("bad.tif", 5)
	bad.failAt = 0
	require.Error(t, c.SetStack(bad))
	assert.Equal(t, 1, bad.closed)
	assert.Equal(t, 0, first.closed)
	assert.Equal(t, "first.tif", c.Stack().Path())
	idx, _ := c.Index()
	assert.Equal(t, 2, idx)

	second := newFakeSource("second.tif", 7)
	require.NoError(t, c.SetStack(second))
	assert.Equal(t, 1, first.closed)
	idx, _ = c.Index()
	assert.Equal(t, 0, idx)
	assert.Equal(t, 7, c.FrameCount())
}

func TestOpenFailureLeavesStack(t *testing.T) {
	v := &fakeViewer{}
	sources := map[string]*fakeSource{"good.tif": newFakeSource("good.tif", 2)}
	open := func(path string) (Source, error) {
		if s, ok := sources[path]; ok {
			return s, nil
		}
		return nil, &stack.FileError{Path: path, Err: errors.New("missing")}
	}
	c := NewController(v, nil, open, nil)

	require.NoError(t, c.Open("good.tif"))
	err := c.Open("missing.tif")
	assert.True(t, stack.IsFileError(err))
	assert.Equal(t, "good.tif", c.Stack().Path())
}

func TestClear(t *testing.T) {
	c, v, ctl := newTestController(t)
	src := newFakeSource("a.tif", 3)
	require.NoError(t, c.SetStack(src))

	c.Clear()
	assert.False(t, c.HasStack())
	_, ok := c.Index()
	assert.False(t, ok)
	assert.Equal(t, 1, src.closed)
	assert.Equal(t, 1, v.cleared)
	assert.Equal(t, Visibility{}, ctl.last().Visibility)

	images, states := len(v.images), len(ctl.states)
	require.NoError(t, c.Seek(0))
	require.NoError(t, c.Prev())
	require.NoError(t, c.Next())
	require.NoError(t, c.First())
	require.NoError(t, c.Last())
	assert.False(t, c.HasStack())
	_, ok = c.Index()
	assert.False(t, ok)
	assert.Len(t, v.images, images)
	assert.Len(t, ctl.states, states)
}

func TestFrameDirectAccess(t *testing.T) {
	c, v, _ := newTestController(t)
	require.NoError(t, c.SetStack(newFakeSource("a.tif", 3)))

	_, err := c.Frame(3)
	var ie *stack.IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 3, ie.Count)

	f, err := c.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, f.Pix[1])
	assert.Len(t, v.images, 1, "direct access does not change the display")

	f, err = c.CurrentFrame()
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.Pix[1])
}

// blockingSource parks ReadFrame for frame 1 until released.
type blockingSource struct {
	*fakeSource
	reached chan struct{}
	release chan struct{}
}

func (b *blockingSource) ReadFrame(i int) (*stack.Frame, error) {
	if i == 1 {
		close(b.reached)
		<-b.release
	}
	return b.fakeSource.ReadFrame(i)
}

func TestLoadAllLocksNavigation(t *testing.T) {
	c, v, _ := newTestController(t)
	src := &blockingSource{
		fakeSource: newFakeSource("a.tif", 3),
		reached:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	require.NoError(t, c.SetStack(src))

	type result struct {
		arr *bulk.Array
		err error
	}
	done := make(chan result)
	go func() {
		arr, err := c.LoadAll(context.Background(), nil)
		done <- result{arr, err}
	}()

	<-src.reached
	assert.True(t, c.Loading())
	images := len(v.images)
	require.NoError(t, c.Seek(2))
	assert.Len(t, v.images, images, "seek during bulk load is ignored")
	assert.ErrorIs(t, c.SetStack(newFakeSource("b.tif", 2)), ErrBusy)
	_, err := c.LoadAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(src.release)
	r := <-done
	require.NoError(t, r.err)
	_, _, n := r.arr.Shape()
	assert.Equal(t, 3, n)
	assert.False(t, c.Loading())

	require.NoError(t, c.Seek(2))
	idx, _ := c.Index()
	assert.Equal(t, 2, idx)
}

func TestBeginLoadLocksBeforeRun(t *testing.T) {
	c, v, _ := newTestController(t)
	require.NoError(t, c.SetStack(newFakeSource("a.tif", 3)))

	l, err := c.BeginLoad()
	require.NoError(t, err)
	assert.True(t, c.Loading())

	images := len(v.images)
	require.NoError(t, c.Next())
	assert.Len(t, v.images, images)
	replacement := newFakeSource("b.tif", 2)
	assert.ErrorIs(t, c.SetStack(replacement), ErrBusy)
	assert.Equal(t, 1, replacement.closed)
	assert.Equal(t, "a.tif", c.Stack().Path())
	_, err = c.BeginLoad()
	assert.ErrorIs(t, err, ErrBusy)

	arr, err := l.Run(context.Background(), nil)
	require.NoError(t, err)
	_, _, n := arr.Shape()
	assert.Equal(t, 3, n)
	assert.False(t, c.Loading())
}

func TestLoadAllWithoutStack(t *testing.T) {
	c, _, _ := newTestController(t)
	_, err := c.LoadAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoStack)
	assert.False(t, c.Loading())
}

func TestControllerWithRealStack(t *testing.T) {
	path := stacktest.WriteGrayStack(t, t.TempDir(), "real.tif", 4, 4, 5)
	open := func(p string) (Source, error) { return stack.Open(p, nil) }
	v := &fakeViewer{}
	ctl := &fakeControls{}
	c := NewController(v, ctl, open, nil)

	require.NoError(t, c.Open(path))
	require.NoError(t, c.Seek(3))
	assert.Equal(t, "4/5", ctl.last().Label)
	assert.Equal(t, image.Rect(0, 0, 4, 4), v.last().Bounds())
	c.Clear()
}
