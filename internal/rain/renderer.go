// Package rain draws the falling-glyph effect onto an abstract surface.
//
// A Renderer owns one Canvas, one fall cursor per column and the cadence gate
// that decides whether a host tick produces a frame. It has no notion of
// windows, timers or threads: the host calls Tick from its own loop.
package rain

import (
	"image/color"
	"math"
	"math/rand/v2"
	"time"
)

// Canvas is the drawing surface a renderer paints on.
type Canvas interface {
	Resize(w, h int)
	Size() (w, h int)
	FillRect(x, y, w, h float64, c color.Color)
	SetGlyphStyle(c color.Color, size float64)
	DrawGlyph(glyph string, x, y float64)
	// ClipCircle constrains drawing to the circle inscribed in the surface
	// until Unclip is called.
	ClipCircle()
	Unclip()
	Dispose()
}

// Mount is a container a renderer attaches its surface to.
type Mount interface {
	// Measure reports the container's current box in pixels.
	Measure() (w, h int)
	// Attach replaces the container's content with c. A nil c detaches.
	Attach(c Canvas)
}

// CanvasFactory allocates a surface of the given size.
type CanvasFactory func(w, h int) Canvas

// Rand is the randomness a renderer consumes. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

type State int

const (
	StateCreated State = iota
	StateRunning
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Renderer is one running rain animation bound to one mount.
type Renderer struct {
	mount  Mount
	canvas Canvas
	cfg    Config
	base   time.Duration
	rng    Rand

	fall   []int
	state  State
	last   time.Duration
	frames int
}

// New clears mount, attaches a freshly allocated surface sized to it and
// lays out the columns. A nil mount yields an inert renderer whose methods
// all do nothing.
func New(mount Mount, newCanvas CanvasFactory, cfg Config, rng Rand) *Renderer {
	cfg = cfg.WithDefaults()
	if rng == nil {
		rng = globalRand{}
	}
	r := &Renderer{cfg: cfg, base: cfg.Cadence, rng: rng}
	if mount == nil || newCanvas == nil {
		return r
	}

	w, h := mount.Measure()
	r.mount = mount
	r.canvas = newCanvas(w, h)
	mount.Attach(r.canvas)
	r.layout(w)
	return r
}

// Inert reports whether the renderer was created without a mount.
func (r *Renderer) Inert() bool { return r.mount == nil }

func (r *Renderer) State() State { return r.state }

// Config returns a copy of the current configuration.
func (r *Renderer) Config() Config { return r.cfg.Merge(Override{}) }

// Surface returns the attached canvas, nil once destroyed or when inert.
func (r *Renderer) Surface() Canvas { return r.canvas }

// Columns returns the current column count.
func (r *Renderer) Columns() int { return len(r.fall) }

// FallPositions returns a copy of every column's fall cursor.
func (r *Renderer) FallPositions() []int { return append([]int(nil), r.fall...) }

// Frames returns how many frames have been drawn.
func (r *Renderer) Frames() int { return r.frames }

// Start moves a created renderer into the running state.
func (r *Renderer) Start() {
	if r.Inert() || r.state != StateCreated {
		return
	}
	r.state = StateRunning
}

// Pause stops frame production while keeping the column state.
func (r *Renderer) Pause() {
	if r.state == StateRunning {
		r.state = StatePaused
	}
}

func (r *Renderer) Resume() {
	if r.state == StatePaused {
		r.state = StateRunning
	}
}

// Cadence returns the current minimum interval between frames.
func (r *Renderer) Cadence() time.Duration { return r.cfg.Cadence }

// BaseCadence returns the cadence the renderer was created with.
func (r *Renderer) BaseCadence() time.Duration { return r.base }

// SetCadence changes the minimum interval between frames. The next Tick
// uses it; the loop is not restarted.
func (r *Renderer) SetCadence(d time.Duration) {
	if d <= 0 || r.state == StateDestroyed {
		return
	}
	r.cfg.Cadence = d
}

// Tick is called by the host scheduler with a monotonic timestamp. It draws
// a frame when the renderer is running and at least one cadence interval
// has passed since the previous frame, and reports whether it drew.
func (r *Renderer) Tick(ts time.Duration) bool {
	if r.state != StateRunning {
		return false
	}
	if ts-r.last < r.cfg.Cadence {
		return false
	}
	r.DrawFrame()
	r.last = ts
	return true
}

// Resize re-measures the mount, resizes the surface and reallocates the
// columns. Safe in any state except destroyed.
func (r *Renderer) Resize() {
	if r.Inert() || r.state == StateDestroyed {
		return
	}
	w, h := r.mount.Measure()
	r.canvas.Resize(w, h)
	r.layout(w)
}

func (r *Renderer) layout(w int) {
	r.fall = make([]int, columnCount(w, r.cfg.GlyphSize, r.cfg.Density))
	for i := range r.fall {
		r.fall[i] = 1
	}
}

func columnCount(w int, glyphSize, density float64) int {
	if w <= 0 || glyphSize <= 0 || density <= 0 {
		return 0
	}
	return int(math.Floor(float64(w) / glyphSize * density))
}

// DrawFrame paints one frame: a translucent black wash for the trails, one
// glyph per visible column, then every column's cursor advances. Culled
// glyphs still advance so gated columns never freeze.
func (r *Renderer) DrawFrame() {
	if r.Inert() || r.state == StateDestroyed {
		return
	}
	w, h := r.canvas.Size()
	fw, fh := float64(w), float64(h)

	if r.cfg.CircularClip {
		r.canvas.ClipCircle()
	}

	r.canvas.FillRect(0, 0, fw, fh, color.RGBA{A: alpha(r.cfg.FadeOpacity)})
	r.canvas.SetGlyphStyle(r.cfg.Color, r.cfg.GlyphSize)

	if cols := len(r.fall); cols > 0 {
		step := fw / float64(cols)
		drawn := 0
		for i := 0; i < cols; i++ {
			glyph := r.cfg.Glyphs[r.rng.IntN(len(r.cfg.Glyphs))]
			x := float64(i) * step
			y := float64(r.fall[i]) * r.cfg.GlyphSize
			if x < 0 || x >= fw || y < 0 || y >= fh {
				continue
			}
			if r.cfg.MaxActive > 0 && drawn >= r.cfg.MaxActive {
				continue
			}
			if r.rng.Float64() >= r.cfg.SpawnRate {
				continue
			}
			r.canvas.DrawGlyph(glyph, x, y)
			drawn++
		}

		for i := range r.fall {
			if float64(r.fall[i])*r.cfg.GlyphSize > fh && r.rng.Float64() < r.cfg.ResetChance {
				r.fall[i] = 0
			}
			r.fall[i]++
		}
	}

	if r.cfg.CircularClip {
		r.canvas.Unclip()
	}
	r.frames++
}

// Destroy stops the renderer for good and releases its surface. Calling it
// again is a no-op.
func (r *Renderer) Destroy() {
	if r.state == StateDestroyed {
		return
	}
	r.state = StateDestroyed
	if r.canvas != nil {
		r.canvas.Dispose()
		r.mount.Attach(nil)
		r.canvas = nil
	}
	r.fall = nil
}

func alpha(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
