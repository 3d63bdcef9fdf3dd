package service

import (
	"fmt"
	"os"
	"time"

	"fystack/internal/pixel"
	"fystack/internal/stack"

	"gonum.org/v1/gonum/stat"
)

// FrameStats summarises the samples of one frame.
type FrameStats struct {
	Index  int     `yaml:"index"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

// StackInfo holds metadata about a stack file.
type StackInfo struct {
	Path     string       `yaml:"path"`
	Size     int64        `yaml:"size"`
	ModTime  time.Time    `yaml:"mod_time"`
	Frames   int          `yaml:"frames"`
	Width    int          `yaml:"width"`
	Height   int          `yaml:"height"`
	Channels int          `yaml:"channels"`
	Stats    []FrameStats `yaml:"stats,omitempty"`
}

// ComputeStats returns population statistics over every sample of f.
func ComputeStats(index int, f *stack.Frame) FrameStats {
	st := FrameStats{Index: index}
	if len(f.Pix) == 0 {
		return st
	}
	st.Min, st.Max = pixel.Range(f)
	st.Mean, st.StdDev = stat.PopMeanStdDev(f.Pix, nil)
	return st
}

// Describe opens path and reports its size, shape and channel count.
// With withStats it also decodes every frame and reports FrameStats.
func (s *Service) Describe(path string, withStats bool) (*StackInfo, error) {
	h, err := s.OpenStack(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	fi, err := os.Stat(h.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", h.Path(), err)
	}
	first, err := h.ReadFrame(0)
	if err != nil {
		return nil, err
	}

	info := &StackInfo{
		Path:     h.Path(),
		Size:     fi.Size(),
		ModTime:  fi.ModTime(),
		Frames:   h.FrameCount(),
		Channels: first.Channels,
	}
	info.Width, info.Height = h.Shape()

	if withStats {
		info.Stats = append(info.Stats, ComputeStats(0, first))
		for i := 1; i < info.Frames; i++ {
			f, err := h.ReadFrame(i)
			if err != nil {
				return nil, err
			}
			info.Stats = append(info.Stats, ComputeStats(i, f))
		}
	}
	return info, nil
}
