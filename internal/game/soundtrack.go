package game

import (
	"errors"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/ncruces/zenity"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/audio"
	"github.com/iburimskiy/matrix-rain/internal/config"
)

// soundtrack plays one looping track through the speaker and exposes its
// loudness.
type soundtrack struct {
	log *zap.Logger

	track    *audio.Track
	ctrl     *beep.Ctrl
	tap      *audio.Tap
	meter    *audio.Meter
	rate     beep.SampleRate
	initDone bool
	paused   bool
}

func newSoundtrack(log *zap.Logger) *soundtrack {
	return &soundtrack{log: log}
}

func (s *soundtrack) loaded() bool { return s.track != nil }

// pickFile asks the user for a track. A cancelled dialog is not an error.
func (s *soundtrack) pickFile() (string, error) {
	filename, err := zenity.SelectFile(
		zenity.Title("Open Soundtrack"),
		zenity.FileFilters{{
			Name:     "Audio",
			Patterns: audio.Extensions,
		}},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", nil
	}
	return filename, err
}

// play replaces the current track with the file at path, looping forever.
func (s *soundtrack) play(path string) error {
	track, err := audio.Open(path)
	if err != nil {
		return err
	}

	bufferSize := track.Format.SampleRate.N(time.Second / 20)
	switch {
	case !s.initDone:
		if err := speaker.Init(track.Format.SampleRate, bufferSize); err != nil {
			_ = track.Close()
			return err
		}
		s.initDone = true
	case s.rate != track.Format.SampleRate:
		speaker.Clear()
		if err := speaker.Init(track.Format.SampleRate, bufferSize); err != nil {
			_ = track.Close()
			return err
		}
	default:
		speaker.Clear()
	}
	s.closeTrack()

	tap := audio.NewTap(beep.Loop(-1, track.Streamer), config.VisualRingSize)
	ctrl := &beep.Ctrl{Streamer: tap, Paused: s.paused}

	s.track = track
	s.rate = track.Format.SampleRate
	s.tap = tap
	s.ctrl = ctrl
	s.meter = audio.NewMeter(tap, config.LoudnessWindow, config.SmoothingFactor)

	speaker.Play(ctrl)
	s.log.Info("soundtrack playing",
		zap.String("path", path),
		zap.Int("sample_rate", int(track.Format.SampleRate)),
		zap.Duration("duration", track.Duration()),
	)
	return nil
}

// level returns the smoothed loudness, zero when nothing plays.
func (s *soundtrack) level() float64 {
	if s.meter == nil || s.paused {
		return 0
	}
	return s.meter.Sample()
}

func (s *soundtrack) position() time.Duration {
	if s.track == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return s.rate.D(s.track.Streamer.Position())
}

func (s *soundtrack) setPaused(paused bool) {
	s.paused = paused
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

func (s *soundtrack) close() {
	if s.initDone {
		speaker.Clear()
	}
	s.closeTrack()
}

func (s *soundtrack) closeTrack() {
	if s.track == nil {
		return
	}
	speaker.Lock()
	err := s.track.Close()
	speaker.Unlock()
	if err != nil {
		s.log.Warn("close soundtrack", zap.Error(err))
	}
	s.track, s.tap, s.ctrl, s.meter = nil, nil, nil, nil
}
