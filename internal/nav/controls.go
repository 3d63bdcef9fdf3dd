package nav

import "fmt"

// Visibility says which navigation controls should be shown.
type Visibility struct {
	Slider  bool
	Buttons bool
	Label   bool
}

// ComputeVisibility shows the slider, the prev/next buttons and the frame
// label only when there is more than one frame to move between.
func ComputeVisibility(frameCount int) Visibility {
	multi := frameCount > 1
	return Visibility{Slider: multi, Buttons: multi, Label: multi}
}

// FrameLabel formats a zero-based index as "i+1/N".
func FrameLabel(index, frameCount int) string {
	return fmt.Sprintf("%d/%d", index+1, frameCount)
}

// ControlState is everything a navigation bar needs to redraw itself.
// The slider is one-based: Value is the current index plus one.
type ControlState struct {
	Min        int
	Max        int
	Value      int
	Label      string
	Visibility Visibility
}

// stateFor builds the control state for a loaded stack.
func stateFor(index, frameCount int) ControlState {
	return ControlState{
		Min:        1,
		Max:        frameCount,
		Value:      index + 1,
		Label:      FrameLabel(index, frameCount),
		Visibility: ComputeVisibility(frameCount),
	}
}
