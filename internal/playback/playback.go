// Package playback steps through the frames of a stack on a timer.
package playback

import (
	"sync"
	"time"
)

const (
	defaultInterval = 100 * time.Millisecond
)

// Player holds the play/pause state. It starts paused.
type Player struct {
	mu                 sync.Mutex
	playing            bool
	wasPlayingBeforeOp bool // playing state saved by Pause(true)
	interval           time.Duration
	loop               bool
}

// NewPlayer creates a Player. A non-positive interval falls back to the default.
func NewPlayer(interval time.Duration, loop bool) *Player {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Player{interval: interval, loop: loop}
}

// Toggle flips between playing and paused.
func (p *Player) Toggle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = !p.playing
	p.wasPlayingBeforeOp = false
}

// Pause stops playback.
// If forOperation is true, it remembers whether playback was running so
// ResumeAfterOperation can restore it.
func (p *Player) Pause(forOperation bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if forOperation {
		p.wasPlayingBeforeOp = p.playing
	}
	p.playing = false
}

// ResumeAfterOperation restarts playback only if it was running before Pause(true).
func (p *Player) ResumeAfterOperation() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wasPlayingBeforeOp {
		p.playing = true
	}
	p.wasPlayingBeforeOp = false
}

// IsPlaying reports whether playback is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Interval returns the time between frames.
func (p *Player) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Loop reports whether playback wraps from the last frame to the first.
func (p *Player) Loop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loop
}

// SetLoop changes the wrap behaviour.
func (p *Player) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = loop
}

// NextIndex returns the frame after current. At the last frame it wraps
// to 0 when loop is set and reports false otherwise.
func NextIndex(current, count int, loop bool) (int, bool) {
	if count <= 1 {
		return current, false
	}
	if current+1 < count {
		return current + 1, true
	}
	if loop {
		return 0, true
	}
	return current, false
}
