package effects

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/matrix-rain/internal/rain"
)

type countingCanvas struct {
	w, h     int
	glyphs   int
	disposed bool
}

func (c *countingCanvas) Resize(w, h int)                          { c.w, c.h = w, h }
func (c *countingCanvas) Size() (int, int)                         { return c.w, c.h }
func (c *countingCanvas) FillRect(_, _, _, _ float64, _ color.Color) {}
func (c *countingCanvas) SetGlyphStyle(color.Color, float64)       {}
func (c *countingCanvas) DrawGlyph(string, float64, float64)       { c.glyphs++ }
func (c *countingCanvas) ClipCircle()                              {}
func (c *countingCanvas) Unclip()                                  {}
func (c *countingCanvas) Dispose()                                 { c.disposed = true }

type box struct {
	w, h   int
	canvas rain.Canvas
}

func (b *box) Measure() (int, int)  { return b.w, b.h }
func (b *box) Attach(c rain.Canvas) { b.canvas = c }

type fakeDocument map[string]*box

func (d fakeDocument) Lookup(name string) (rain.Mount, bool) {
	b, ok := d[name]
	if !ok {
		return nil, false
	}
	return b, true
}

type zeroRand struct{}

func (zeroRand) IntN(int) int      { return 0 }
func (zeroRand) Float64() float64 { return 0.5 }

func newFixture() (*Manager, *Signals, fakeDocument) {
	doc := fakeDocument{
		"hero":   {w: 320, h: 480},
		"footer": {w: 160, h: 64},
	}
	signals := NewSignals()
	m := NewManager(doc, signals, func(w, h int) rain.Canvas {
		return &countingCanvas{w: w, h: h}
	}, Options{NewRand: func(string) rain.Rand { return zeroRand{} }})
	return m, signals, doc
}

func specs() []MountSpec {
	noReset := 0.0
	cfg := rain.DefaultConfig().Merge(rain.Override{ResetChance: &noReset})
	return []MountSpec{
		{Name: "hero", Config: cfg},
		{Name: "missing", Config: cfg},
		{Name: "footer", Config: cfg},
	}
}

func TestInitAllStartsMountedAndSkipsMissing(t *testing.T) {
	m, _, doc := newFixture()

	handles := m.InitAll(specs())

	require.Len(t, handles, 3)
	assert.Equal(t, rain.StateRunning, handles["hero"].State())
	assert.Equal(t, rain.StateRunning, handles["footer"].State())
	assert.True(t, handles["missing"].Inert())
	assert.NotNil(t, doc["hero"].canvas)
	assert.Equal(t, 20, handles["hero"].Columns())
}

func TestTickInterleavesInstances(t *testing.T) {
	m, _, _ := newFixture()
	handles := m.InitAll(specs())
	handles["footer"].SetCadence(100 * time.Millisecond)

	assert.Equal(t, 1, m.Tick(50*time.Millisecond))
	assert.Equal(t, 2, m.Tick(100*time.Millisecond))
	assert.Equal(t, 1, handles["footer"].Frames())
	assert.Equal(t, 2, handles["hero"].Frames())
}

func TestHiddenPageProducesNoFramesAndResumesInPlace(t *testing.T) {
	m, signals, _ := newFixture()
	handles := m.InitAll(specs())
	hero := handles["hero"]
	require.Equal(t, 2, m.Tick(50*time.Millisecond))
	before := hero.FallPositions()

	signals.EmitVisibility(false)
	assert.Equal(t, rain.StatePaused, hero.State())
	for ts := 100 * time.Millisecond; ts <= time.Second; ts += 50 * time.Millisecond {
		assert.Zero(t, m.Tick(ts))
	}
	assert.Equal(t, before, hero.FallPositions())
	assert.Equal(t, 1, hero.Frames())

	signals.EmitVisibility(true)
	assert.Equal(t, rain.StateRunning, hero.State())
	require.Equal(t, 2, m.Tick(2*time.Second))
	for i, p := range hero.FallPositions() {
		assert.Equal(t, before[i]+1, p)
	}
}

func TestInitWhileHiddenStartsPaused(t *testing.T) {
	m, _, _ := newFixture()
	m.SetVisible(false)

	handles := m.InitAll(specs())

	assert.Equal(t, rain.StatePaused, handles["hero"].State())
	m.SetVisible(true)
	assert.Equal(t, rain.StateRunning, handles["hero"].State())
}

func TestResizeFansOut(t *testing.T) {
	m, signals, doc := newFixture()
	handles := m.InitAll(specs())

	doc["hero"].w = 640
	doc["footer"].w = 32
	signals.EmitResize()

	assert.Equal(t, 40, handles["hero"].Columns())
	assert.Equal(t, 2, handles["footer"].Columns())
}

func TestPauseAndResumeAll(t *testing.T) {
	m, _, _ := newFixture()
	handles := m.InitAll(specs())

	m.PauseAll()
	for name, h := range handles {
		if !h.Inert() {
			assert.Equal(t, rain.StatePaused, h.State(), name)
		}
	}

	m.ResumeAll()
	for name, h := range handles {
		if !h.Inert() {
			assert.Equal(t, rain.StateRunning, h.State(), name)
		}
	}
}

func TestCleanupAllDestroysAndDetaches(t *testing.T) {
	m, signals, doc := newFixture()
	handles := m.InitAll(specs())
	canvas := doc["hero"].canvas.(*countingCanvas)
	require.Equal(t, 2, signals.Listeners())

	m.CleanupAll()
	m.CleanupAll()

	assert.Zero(t, signals.Listeners())
	assert.Zero(t, m.Len())
	assert.True(t, canvas.disposed)
	assert.Nil(t, doc["hero"].canvas)
	for _, h := range handles {
		assert.Equal(t, rain.StateDestroyed, h.State())
	}

	signals.EmitVisibility(false)
	signals.EmitVisibility(true)
	assert.Zero(t, m.Tick(time.Hour))
	for _, h := range handles {
		assert.Equal(t, rain.StateDestroyed, h.State())
	}
}

func TestInitAllReplacesExistingName(t *testing.T) {
	m, _, doc := newFixture()
	first := m.InitAll(specs())["hero"]
	firstCanvas := doc["hero"].canvas.(*countingCanvas)

	second := m.InitAll(specs()[:1])["hero"]

	assert.NotSame(t, first, second)
	assert.Equal(t, rain.StateDestroyed, first.State())
	assert.True(t, firstCanvas.disposed)
	require.NotNil(t, doc["hero"].canvas)
	assert.Same(t, second.Surface(), doc["hero"].canvas)
	assert.Equal(t, rain.StateRunning, second.State())
	require.Equal(t, 2, m.Tick(50*time.Millisecond))
	assert.Positive(t, doc["hero"].canvas.(*countingCanvas).glyphs)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 2, m.signals.Listeners())
}

func TestHoverCadenceThroughHandle(t *testing.T) {
	m, _, _ := newFixture()
	m.InitAll(specs())
	hero, ok := m.Handle("hero")
	require.True(t, ok)

	hero.SetCadence(20 * time.Millisecond)
	assert.Equal(t, 1, m.Tick(20*time.Millisecond))

	hero.SetCadence(hero.BaseCadence())
	assert.Equal(t, rain.DefaultCadence, hero.Cadence())
}

func TestRegistryOrder(t *testing.T) {
	m, _, _ := newFixture()
	m.InitAll(specs())

	var names []string
	m.Each(func(name string, _ *rain.Renderer) { names = append(names, name) })

	assert.Equal(t, []string{"hero", "missing", "footer"}, names)
}
