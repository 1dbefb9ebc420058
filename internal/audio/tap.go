// Package audio decodes the optional soundtrack and measures how loud it is
// so effects can follow the music.
package audio

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// Tap wraps a beep.Streamer and records the last N samples into a ring buffer
// so the host can react to recently played audio.
type Tap struct {
	Source    beep.Streamer
	buffer    [][2]float64
	nextIndex int
	filled    bool
	mu        sync.RWMutex
}

func NewTap(src beep.Streamer, ringSize int) *Tap {
	return &Tap{
		Source: src,
		buffer: make([][2]float64, ringSize),
	}
}

// Stream runs on the speaker goroutine.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n > 0 {
		t.mu.Lock()
		for i := 0; i < n; i++ {
			t.buffer[t.nextIndex] = samples[i]
			t.nextIndex++
			if t.nextIndex >= len(t.buffer) {
				t.nextIndex = 0
				t.filled = true
			}
		}
		t.mu.Unlock()
	}
	return n, ok
}

func (t *Tap) Err() error { return t.Source.Err() }

// Snapshot returns up to the last n recorded samples, oldest first.
func (t *Tap) Snapshot(n int) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	avail := t.nextIndex
	if t.filled {
		avail = len(t.buffer)
	}
	if n > avail {
		n = avail
	}
	out := make([][2]float64, n)
	idx := t.nextIndex - n
	if idx < 0 {
		idx += len(t.buffer)
	}
	for i := range out {
		out[i] = t.buffer[idx]
		idx++
		if idx == len(t.buffer) {
			idx = 0
		}
	}
	return out
}

// RMS returns the root mean square of the mono mix of samples.
func RMS(samples [][2]float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		mono := (s[0] + s[1]) * 0.5
		sumSquares += mono * mono
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}

// Meter turns tap snapshots into a smoothed loudness in [0,1].
type Meter struct {
	tap       *Tap
	window    int
	smoothing float64
	level     float64
}

func NewMeter(tap *Tap, window int, smoothing float64) *Meter {
	return &Meter{tap: tap, window: window, smoothing: smoothing}
}

// Sample reads the tap and returns the updated level.
func (m *Meter) Sample() float64 {
	samples := m.tap.Snapshot(m.window)
	if len(samples) == 0 {
		return m.level
	}
	// Strong compression so quiet passages still move the effect.
	mag := clamp01(math.Pow(RMS(samples), 0.3))
	m.level = m.smoothing*m.level + (1-m.smoothing)*mag
	return m.level
}

func (m *Meter) Level() float64 { return m.level }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
