// Package layout resolves named window regions into mount points.
package layout

import (
	"math"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

// Rect is a pixel rectangle in window coordinates.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a mount point: a named share of the window holding at most one
// surface.
type Region struct {
	name   string
	frac   config.Region
	layout *Layout
	canvas rain.Canvas
}

func (r *Region) Name() string { return r.name }

// Bounds resolves the region against the current window size.
func (r *Region) Bounds() Rect {
	w, h := float64(r.layout.width), float64(r.layout.height)
	x0 := int(math.Round(r.frac.X * w))
	y0 := int(math.Round(r.frac.Y * h))
	x1 := int(math.Round((r.frac.X + r.frac.W) * w))
	y1 := int(math.Round((r.frac.Y + r.frac.H) * h))
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r *Region) Measure() (int, int) {
	b := r.Bounds()
	return b.W, b.H
}

func (r *Region) Attach(c rain.Canvas) { r.canvas = c }

// Canvas returns the attached surface, nil when empty.
func (r *Region) Canvas() rain.Canvas { return r.canvas }

// Layout tracks the window size and the active regions in scene order.
type Layout struct {
	width, height int
	order         []*Region
	byName        map[string]*Region
}

// New builds a layout from the scene's active mounts.
func New(width, height int, mounts []config.Mount) *Layout {
	l := &Layout{width: width, height: height, byName: map[string]*Region{}}
	for _, m := range mounts {
		if !m.Active() {
			continue
		}
		r := &Region{name: m.Name, frac: m.Region, layout: l}
		l.order = append(l.order, r)
		l.byName[m.Name] = r
	}
	return l
}

// Lookup implements effects.Document.
func (l *Layout) Lookup(name string) (rain.Mount, bool) {
	r, ok := l.byName[name]
	if !ok {
		return nil, false
	}
	return r, true
}

func (l *Layout) Region(name string) (*Region, bool) {
	r, ok := l.byName[name]
	return r, ok
}

// Regions returns the active regions in scene order.
func (l *Layout) Regions() []*Region { return append([]*Region(nil), l.order...) }

func (l *Layout) Size() (int, int) { return l.width, l.height }

// SetSize records a new window size and reports whether it changed.
func (l *Layout) SetSize(width, height int) bool {
	if width == l.width && height == l.height {
		return false
	}
	l.width, l.height = width, height
	return true
}

// At returns the topmost region containing the point, if any. Later regions
// draw over earlier ones.
func (l *Layout) At(x, y int) (*Region, bool) {
	for i := len(l.order) - 1; i >= 0; i-- {
		if l.order[i].Bounds().Contains(x, y) {
			return l.order[i], true
		}
	}
	return nil, false
}
