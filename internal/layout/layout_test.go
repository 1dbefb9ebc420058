package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/effects"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

// Compile-time interface checks.
var (
	_ effects.Document = (*Layout)(nil)
	_ rain.Mount       = (*Region)(nil)
)

func mounts() []config.Mount {
	off := false
	return []config.Mount{
		{Name: "top", Region: config.Region{X: 0, Y: 0, W: 1, H: 0.5}},
		{Name: "left", Region: config.Region{X: 0, Y: 0.5, W: 0.25, H: 0.5}},
		{Name: "gone", Enabled: &off, Region: config.Region{W: 1, H: 1}},
		{Name: "badge", Region: config.Region{X: 0, Y: 0.4, W: 0.1, H: 0.2}},
	}
}

func TestRegionsResolveAgainstWindow(t *testing.T) {
	l := New(1024, 640, mounts())

	top, ok := l.Region("top")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 1024, H: 320}, top.Bounds())

	left, _ := l.Region("left")
	w, h := left.Measure()
	assert.Equal(t, 256, w)
	assert.Equal(t, 320, h)

	assert.True(t, l.SetSize(800, 600))
	assert.False(t, l.SetSize(800, 600))
	w, h = left.Measure()
	assert.Equal(t, 200, w)
	assert.Equal(t, 300, h)
}

func TestAdjacentRegionsTile(t *testing.T) {
	l := New(1001, 333, []config.Mount{
		{Name: "a", Region: config.Region{X: 0, Y: 0, W: 1.0 / 3, H: 1}},
		{Name: "b", Region: config.Region{X: 1.0 / 3, Y: 0, W: 1.0 / 3, H: 1}},
		{Name: "c", Region: config.Region{X: 2.0 / 3, Y: 0, W: 1.0 / 3, H: 1}},
	})

	total := 0
	for _, r := range l.Regions() {
		total += r.Bounds().W
	}
	assert.Equal(t, 1001, total)
}

func TestDisabledMountIsMissing(t *testing.T) {
	l := New(100, 100, mounts())

	_, ok := l.Lookup("gone")
	assert.False(t, ok)
	_, ok = l.Lookup("nowhere")
	assert.False(t, ok)
	assert.Len(t, l.Regions(), 3)
}

func TestAtPrefersLaterRegions(t *testing.T) {
	l := New(1000, 1000, mounts())

	r, ok := l.At(50, 450)
	require.True(t, ok)
	assert.Equal(t, "badge", r.Name())

	r, ok = l.At(500, 100)
	require.True(t, ok)
	assert.Equal(t, "top", r.Name())

	_, ok = l.At(900, 900)
	assert.False(t, ok)
}
