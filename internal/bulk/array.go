package bulk

// Array holds a whole stack in memory. Frames are stored one after the
// other so Slice(z) is a contiguous width*height view.
type Array struct {
	Width  int
	Height int
	Depth  int
	Data   []float64
}

// NewArray allocates a zeroed w×h×n array.
func NewArray(w, h, n int) *Array {
	return &Array{Width: w, Height: h, Depth: n, Data: make([]float64, w*h*n)}
}

// Shape returns (width, height, frames).
func (a *Array) Shape() (int, int, int) {
	return a.Width, a.Height, a.Depth
}

func (a *Array) index(x, y, z int) int {
	return z*a.Width*a.Height + y*a.Width + x
}

// At returns the sample at column x, row y of frame z.
func (a *Array) At(x, y, z int) float64 {
	return a.Data[a.index(x, y, z)]
}

// Slice returns frame z without copying.
func (a *Array) Slice(z int) []float64 {
	n := a.Width * a.Height
	return a.Data[z*n : (z+1)*n]
}
