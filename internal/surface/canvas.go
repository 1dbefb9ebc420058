// Package surface implements rain.Canvas on offscreen ebiten images.
package surface

import (
	"bytes"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/iburimskiy/matrix-rain/internal/rain"
)

var (
	monoOnce   sync.Once
	monoSource *text.GoTextFaceSource
	monoErr    error
)

// LoadFont parses the glyph face. It is safe to call repeatedly; the host
// calls it once at startup to surface errors early.
func LoadFont() (*text.GoTextFaceSource, error) {
	monoOnce.Do(func() {
		monoSource, monoErr = text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	})
	return monoSource, monoErr
}

// Canvas is one renderer's pixel buffer. The image persists between frames
// so the translucent wash leaves trails.
type Canvas struct {
	img  *ebiten.Image
	w, h int

	// scratch layer and circle mask used while clipped
	layer   *ebiten.Image
	mask    *ebiten.Image
	clipped bool

	face  *text.GoTextFace
	color color.Color
}

// New allocates a canvas. Zero or negative sizes give an empty canvas that
// ignores draws until resized.
func New(w, h int) rain.Canvas {
	c := &Canvas{color: color.White}
	c.Resize(w, h)
	return c
}

// Image returns the backing image, nil for an empty canvas.
func (c *Canvas) Image() *ebiten.Image { return c.img }

func (c *Canvas) Size() (int, int) { return c.w, c.h }

func (c *Canvas) Resize(w, h int) {
	if w == c.w && h == c.h && (c.img != nil || w <= 0 || h <= 0) {
		return
	}
	c.release()
	c.w, c.h = max(w, 0), max(h, 0)
	if c.w > 0 && c.h > 0 {
		c.img = ebiten.NewImage(c.w, c.h)
	}
}

func (c *Canvas) target() *ebiten.Image {
	if c.clipped {
		return c.layer
	}
	return c.img
}

func (c *Canvas) FillRect(x, y, w, h float64, clr color.Color) {
	dst := c.target()
	if dst == nil {
		return
	}
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h), clr, false)
}

func (c *Canvas) SetGlyphStyle(clr color.Color, size float64) {
	c.color = clr
	if c.face != nil && c.face.Size == size {
		return
	}
	src, err := LoadFont()
	if err != nil {
		c.face = nil
		return
	}
	c.face = &text.GoTextFace{Source: src, Size: size}
}

// DrawGlyph draws with (x, y) on the baseline, like a 2D canvas fillText.
func (c *Canvas) DrawGlyph(glyph string, x, y float64) {
	dst := c.target()
	if dst == nil || c.face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y-c.face.Metrics().HAscent)
	op.ColorScale.ScaleWithColor(c.color)
	text.Draw(dst, glyph, c.face, op)
}

func (c *Canvas) ClipCircle() {
	if c.img == nil || c.clipped {
		return
	}
	if c.layer == nil {
		c.layer = ebiten.NewImage(c.w, c.h)
	}
	c.layer.Clear()
	c.clipped = true
}

// Unclip masks everything drawn since ClipCircle to the inscribed circle
// and composites it onto the canvas.
func (c *Canvas) Unclip() {
	if !c.clipped {
		return
	}
	c.clipped = false
	if c.mask == nil {
		c.mask = ebiten.NewImage(c.w, c.h)
		r := float32(min(c.w, c.h)) / 2
		vector.DrawFilledCircle(c.mask, float32(c.w)/2, float32(c.h)/2, r, color.White, true)
	}
	c.layer.DrawImage(c.mask, &ebiten.DrawImageOptions{Blend: ebiten.BlendDestinationIn})
	c.img.DrawImage(c.layer, nil)
}

func (c *Canvas) Dispose() {
	c.release()
	c.w, c.h = 0, 0
}

func (c *Canvas) release() {
	for _, img := range []*ebiten.Image{c.img, c.layer, c.mask} {
		if img != nil {
			img.Deallocate()
		}
	}
	c.img, c.layer, c.mask = nil, nil, nil
	c.clipped = false
}
