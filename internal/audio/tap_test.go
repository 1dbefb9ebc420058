package audio

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter streams stereo frames whose left and right channels both carry
// the running frame index.
func counter(total int) beep.Streamer {
	next := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if next >= total {
			return 0, false
		}
		n := 0
		for n < len(samples) && next < total {
			samples[n] = [2]float64{float64(next), float64(next)}
			next++
			n++
		}
		return n, true
	})
}

func drain(t *testing.T, s beep.Streamer, chunk int) {
	t.Helper()
	buf := make([][2]float64, chunk)
	for {
		if _, ok := s.Stream(buf); !ok {
			return
		}
	}
}

func TestSnapshotIsChronological(t *testing.T) {
	tap := NewTap(counter(10), 4)
	drain(t, tap, 3)

	got := tap.Snapshot(3)

	require.Len(t, got, 3)
	assert.Equal(t, 7.0, got[0][0])
	assert.Equal(t, 8.0, got[1][0])
	assert.Equal(t, 9.0, got[2][0])
}

func TestSnapshotBeforeBufferFills(t *testing.T) {
	tap := NewTap(counter(2), 8)
	drain(t, tap, 4)

	got := tap.Snapshot(8)

	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0][0])
	assert.Equal(t, 1.0, got[1][0])
	assert.Empty(t, NewTap(counter(0), 8).Snapshot(4))
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 0.5, RMS([][2]float64{{0.5, 0.5}, {-0.5, -0.5}}), 1e-12)
	assert.InDelta(t, 0.0, RMS([][2]float64{{1, -1}}), 1e-12)
}

func TestMeterSmoothsTowardsLoudness(t *testing.T) {
	loud := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{1, 1}
		}
		return len(samples), true
	})
	tap := NewTap(loud, 64)
	m := NewMeter(tap, 32, 0.5)

	assert.Zero(t, m.Sample())

	buf := make([][2]float64, 64)
	tap.Stream(buf)
	assert.InDelta(t, 0.5, m.Sample(), 1e-12)
	assert.InDelta(t, 0.75, m.Sample(), 1e-12)
	assert.InDelta(t, 0.75, m.Level(), 1e-12)
}

func TestCadence(t *testing.T) {
	base := 80 * time.Millisecond
	floor := 20 * time.Millisecond

	assert.Equal(t, base, Cadence(base, 0, 0.6, floor))
	assert.Equal(t, 32*time.Millisecond, Cadence(base, 1, 0.6, floor))
	assert.Equal(t, floor, Cadence(base, 1, 0.9, floor))
	assert.Equal(t, base, Cadence(base, -3, 0.6, floor))

	prev := Cadence(base, 0, 0.6, floor)
	for level := 0.1; level <= 1; level += 0.1 {
		d := Cadence(base, level, 0.6, floor)
		assert.LessOrEqual(t, d, prev)
		prev = d
	}
}

func TestDecodeRejectsUnknownExtension(t *testing.T) {
	_, _, err := Decode(io.NopCloser(strings.NewReader("")), ".ogg")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
