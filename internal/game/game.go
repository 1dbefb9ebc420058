// Package game hosts the rain effects in an ebiten window: it maps window
// focus, size and pointer events onto the effect manager and composites the
// renderers' surfaces each frame.
package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/audio"
	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/effects"
	"github.com/iburimskiy/matrix-rain/internal/layout"
	"github.com/iburimskiy/matrix-rain/internal/rain"
	"github.com/iburimskiy/matrix-rain/internal/surface"
)

type mountInfo struct {
	name          string
	opacity       float64
	hoverCadence  time.Duration
	audioReactive bool
}

type Game struct {
	log     *zap.Logger
	layout  *layout.Layout
	signals *effects.Signals
	manager *effects.Manager
	mounts  []mountInfo

	// scheduling
	elapsed time.Duration
	step    time.Duration

	// visibility
	focused    bool
	userPaused bool

	hovered string

	music *soundtrack

	// input edge detection
	prevKey map[ebiten.Key]bool

	closed  bool
	lastErr error
}

type Options struct {
	Logger  *zap.Logger
	NewRand func(name string) rain.Rand
}

// New mounts every effect of the scene. Nothing is drawn until ebiten runs
// the game.
func New(scene *config.Scene, opts Options) (*Game, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := surface.LoadFont(); err != nil {
		return nil, fmt.Errorf("load glyph font: %w", err)
	}
	resolved, err := scene.Resolve()
	if err != nil {
		return nil, err
	}

	g := &Game{
		log:     log,
		layout:  layout.New(scene.Window.Width, scene.Window.Height, scene.Mounts),
		signals: effects.NewSignals(),
		step:    time.Second / time.Duration(scene.Window.TPS),
		focused: true,
		music:   newSoundtrack(log),
		prevKey: map[ebiten.Key]bool{},
	}
	g.manager = effects.NewManager(g.layout, g.signals, surface.New, effects.Options{
		Logger:  log,
		NewRand: opts.NewRand,
	})

	specs := make([]effects.MountSpec, 0, len(resolved))
	for _, r := range resolved {
		specs = append(specs, effects.MountSpec{Name: r.Name, Config: r.Config})
		g.mounts = append(g.mounts, mountInfo{
			name:          r.Name,
			opacity:       r.Config.Opacity,
			hoverCadence:  r.Config.HoverCadence,
			audioReactive: r.AudioReactive,
		})
	}
	g.manager.InitAll(specs)
	log.Info("effects started", zap.Int("declared", len(specs)), zap.Int("mounted", len(g.layout.Regions())))

	if scene.Soundtrack != "" {
		if err := g.music.play(scene.Soundtrack); err != nil {
			log.Warn("soundtrack unavailable", zap.String("path", scene.Soundtrack), zap.Error(err))
			g.lastErr = err
		}
	}
	return g, nil
}

// Manager exposes the effect manager, e.g. for addressing one handle.
func (g *Game) Manager() *effects.Manager { return g.manager }

func (g *Game) Update() error {
	justPressed := func(k ebiten.Key) bool {
		pressed := ebiten.IsKeyPressed(k)
		jp := pressed && !g.prevKey[k]
		g.prevKey[k] = pressed
		return jp
	}

	if justPressed(ebiten.KeyEscape) || justPressed(ebiten.KeyQ) {
		g.Close()
		return ebiten.Termination
	}
	if justPressed(ebiten.KeySpace) {
		g.userPaused = !g.userPaused
		g.music.setPaused(g.userPaused)
	}
	if justPressed(ebiten.KeyO) {
		g.openSoundtrack()
	}

	g.focused = ebiten.IsFocused() && !ebiten.IsWindowMinimized()
	g.updateVisibility()

	g.updateHover(ebiten.CursorPosition())
	g.updateAudio()

	g.elapsed += g.step
	g.manager.Tick(g.elapsed)
	return nil
}

func (g *Game) visible() bool { return g.focused && !g.userPaused }

func (g *Game) updateVisibility() {
	if v := g.visible(); v != g.manager.Visible() {
		g.signals.EmitVisibility(v)
	}
}

// updateHover speeds up the effect under the pointer and restores the one
// the pointer just left.
func (g *Game) updateHover(x, y int) {
	name := ""
	if r, ok := g.layout.At(x, y); ok {
		name = r.Name()
	}
	if name == g.hovered {
		return
	}
	if m, ok := g.mount(g.hovered); ok && m.hoverCadence > 0 {
		if h, ok := g.manager.Handle(m.name); ok {
			h.SetCadence(h.BaseCadence())
		}
	}
	if m, ok := g.mount(name); ok && m.hoverCadence > 0 {
		if h, ok := g.manager.Handle(m.name); ok {
			h.SetCadence(m.hoverCadence)
		}
	}
	g.hovered = name
}

func (g *Game) updateAudio() {
	if !g.music.loaded() {
		return
	}
	level := g.music.level()
	for _, m := range g.mounts {
		if !m.audioReactive || (m.name == g.hovered && m.hoverCadence > 0) {
			continue
		}
		if h, ok := g.manager.Handle(m.name); ok {
			h.SetCadence(audio.Cadence(h.BaseCadence(), level, config.AudioSpeedup, config.MinCadence))
		}
	}
}

func (g *Game) mount(name string) (mountInfo, bool) {
	if name == "" {
		return mountInfo{}, false
	}
	for _, m := range g.mounts {
		if m.name == name {
			return m, true
		}
	}
	return mountInfo{}, false
}

func (g *Game) openSoundtrack() {
	path, err := g.music.pickFile()
	if err != nil {
		g.lastErr = err
		return
	}
	if path == "" {
		return
	}
	if err := g.music.play(path); err != nil {
		g.log.Warn("soundtrack failed", zap.String("path", path), zap.Error(err))
		g.lastErr = err
		return
	}
	g.lastErr = nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	for _, m := range g.mounts {
		region, ok := g.layout.Region(m.name)
		if !ok {
			continue
		}
		c, ok := region.Canvas().(*surface.Canvas)
		if !ok || c.Image() == nil {
			continue
		}
		b := region.Bounds()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(b.X), float64(b.Y))
		op.ColorScale.ScaleAlpha(float32(m.opacity))
		screen.DrawImage(c.Image(), op)
	}

	ebitenutil.DebugPrintAt(screen, g.status(), 12, 12)
}

func (g *Game) status() string {
	state := "Running"
	switch {
	case g.userPaused:
		state = "Paused - Space to resume"
	case !g.focused:
		state = "Hidden"
	}
	status := fmt.Sprintf("%s | %d effects", state, len(g.layout.Regions()))
	if g.music.loaded() {
		status += " | Soundtrack " + formatDuration(g.music.position())
	}
	if g.lastErr != nil {
		status += " | Error: " + g.lastErr.Error()
	}
	return status
}

// Layout reports the window's own size as the logical screen so regions
// follow window resizes.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.layout.SetSize(outsideWidth, outsideHeight) {
		g.log.Debug("window resized", zap.Int("width", outsideWidth), zap.Int("height", outsideHeight))
		g.signals.EmitResize()
	}
	return outsideWidth, outsideHeight
}

// Close tears every effect down and stops the soundtrack. Safe to call
// twice.
func (g *Game) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.manager.CleanupAll()
	g.music.close()
}
