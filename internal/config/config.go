package config

import "time"

const (
	WindowWidth  = 1024
	WindowHeight = 640
	WindowTitle  = "Matrix Rain - Space: pause, O: soundtrack, Esc/Q: quit"
	TPS          = 60

	// Soundtrack analysis
	VisualRingSize  = 8192
	LoudnessWindow  = 2048
	SmoothingFactor = 0.6

	// Audio-reactive cadence never drops below this.
	MinCadence = 20 * time.Millisecond
	// Share of the base cadence removed at full loudness.
	AudioSpeedup = 0.6
)
