package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Extensions lists the soundtrack formats Open understands.
var Extensions = []string{"*.wav", "*.mp3", "*.flac"}

// Track is an open, decoded soundtrack file.
type Track struct {
	Path     string
	Streamer beep.StreamSeekCloser
	Format   beep.Format
	file     *os.File
}

// Open decodes the file at path based on its extension.
func Open(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	streamer, format, err := Decode(f, filepath.Ext(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Track{Path: path, Streamer: streamer, Format: format, file: f}, nil
}

// Decode picks a decoder by file extension.
func Decode(r io.ReadCloser, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return wav.Decode(r)
	case ".mp3":
		return mp3.Decode(r)
	case ".flac":
		return flac.Decode(r)
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Duration returns the track length.
func (t *Track) Duration() time.Duration {
	return t.Format.SampleRate.D(t.Streamer.Len())
}

// Close releases the decoder and the file. Safe to call twice.
func (t *Track) Close() error {
	var err error
	if t.Streamer != nil {
		err = t.Streamer.Close()
		t.Streamer = nil
	}
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
	}
	return err
}

// Cadence maps a loudness level in [0,1] onto a frame interval: silence keeps
// base, full loudness removes speedup of it, never going below floor.
func Cadence(base time.Duration, level, speedup float64, floor time.Duration) time.Duration {
	d := time.Duration(math.Round(float64(base) * (1 - speedup*clamp01(level))))
	if d < floor {
		d = floor
	}
	return d
}
