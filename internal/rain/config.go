package rain

import (
	"image/color"
	"time"

	"github.com/rivo/uniseg"
)

const (
	DefaultGlyphSize   = 16
	DefaultCadence     = 50 * time.Millisecond
	DefaultOpacity     = 0.7
	DefaultFadeOpacity = 0.08
	ReducedFadeOpacity = 0.12
	DefaultDensity     = 1.0
	DefaultSpawnRate   = 1.0
	DefaultResetChance = 0.025

	DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ123456789"
)

// DefaultColor is the classic terminal green.
var DefaultColor = color.RGBA{R: 0x00, G: 0xff, B: 0x88, A: 0xff}

// Config holds the visual parameters of one renderer. A Config is treated as
// a value: Merge and WithDefaults return copies and never touch the receiver.
type Config struct {
	Glyphs       []string
	Color        color.RGBA
	GlyphSize    float64
	Cadence      time.Duration
	Opacity      float64
	FadeOpacity  float64
	Density      float64
	SpawnRate    float64
	MaxActive    int // 0 means unbounded
	ResetChance  float64
	CircularClip bool

	// HoverCadence replaces Cadence while the pointer is over the mount.
	// Zero disables hover speed changes.
	HoverCadence time.Duration

	// populated is set by DefaultConfig and survives Merge. It marks zero
	// opacities and rates as explicit rather than unset.
	populated bool
}

// DefaultConfig returns a fully populated config.
func DefaultConfig() Config {
	return Config{
		Glyphs:      SplitGlyphs(DefaultAlphabet),
		Color:       DefaultColor,
		GlyphSize:   DefaultGlyphSize,
		Cadence:     DefaultCadence,
		Opacity:     DefaultOpacity,
		FadeOpacity: DefaultFadeOpacity,
		Density:     DefaultDensity,
		SpawnRate:   DefaultSpawnRate,
		ResetChance: DefaultResetChance,
		populated:   true,
	}
}

// WithDefaults fills every unset field from DefaultConfig. Sizes, cadence,
// density, color and glyphs are unset when zero. Opacity, fade opacity,
// spawn rate and reset chance may legitimately be zero, so they are only
// filled on configs that were not derived from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	out := c
	out.Glyphs = append([]string(nil), c.Glyphs...)
	if len(out.Glyphs) == 0 {
		out.Glyphs = d.Glyphs
	}
	if out.Color == (color.RGBA{}) {
		out.Color = d.Color
	}
	if out.GlyphSize <= 0 {
		out.GlyphSize = d.GlyphSize
	}
	if out.Cadence <= 0 {
		out.Cadence = d.Cadence
	}
	if !out.populated {
		if out.Opacity == 0 {
			out.Opacity = d.Opacity
		}
		if out.FadeOpacity == 0 {
			out.FadeOpacity = d.FadeOpacity
		}
		if out.SpawnRate == 0 {
			out.SpawnRate = d.SpawnRate
		}
		if out.ResetChance == 0 {
			out.ResetChance = d.ResetChance
		}
		out.populated = true
	}
	if out.Density <= 0 {
		out.Density = d.Density
	}
	if out.MaxActive < 0 {
		out.MaxActive = 0
	}
	return out
}

// Override lists the fields a variant or a mount replaces on top of a base
// config. Nil fields keep the base value.
type Override struct {
	Glyphs       []string
	Color        *color.RGBA
	GlyphSize    *float64
	Cadence      *time.Duration
	Opacity      *float64
	FadeOpacity  *float64
	Density      *float64
	SpawnRate    *float64
	MaxActive    *int
	ResetChance  *float64
	CircularClip *bool
	HoverCadence *time.Duration
}

// Merge returns a new config with o applied over c.
func (c Config) Merge(o Override) Config {
	out := c
	out.Glyphs = append([]string(nil), c.Glyphs...)
	if len(o.Glyphs) > 0 {
		out.Glyphs = append([]string(nil), o.Glyphs...)
	}
	if o.Color != nil {
		out.Color = *o.Color
	}
	if o.GlyphSize != nil {
		out.GlyphSize = *o.GlyphSize
	}
	if o.Cadence != nil {
		out.Cadence = *o.Cadence
	}
	if o.Opacity != nil {
		out.Opacity = *o.Opacity
	}
	if o.FadeOpacity != nil {
		out.FadeOpacity = *o.FadeOpacity
	}
	if o.Density != nil {
		out.Density = *o.Density
	}
	if o.SpawnRate != nil {
		out.SpawnRate = *o.SpawnRate
	}
	if o.MaxActive != nil {
		out.MaxActive = *o.MaxActive
	}
	if o.ResetChance != nil {
		out.ResetChance = *o.ResetChance
	}
	if o.CircularClip != nil {
		out.CircularClip = *o.CircularClip
	}
	if o.HoverCadence != nil {
		out.HoverCadence = *o.HoverCadence
	}
	return out
}

// Variant returns the named override set. The "reduced" variant (used by
// the footer) thins the columns and fades trails faster.
func Variant(name string) (Override, bool) {
	switch name {
	case "", "normal":
		return Override{}, true
	case "reduced", "footer":
		return Override{
			FadeOpacity: ptr(ReducedFadeOpacity),
			Density:     ptr(0.5),
		}, true
	}
	return Override{}, false
}

// SplitGlyphs splits an alphabet into user-perceived characters, so that
// combining sequences stay one glyph.
func SplitGlyphs(alphabet string) []string {
	var out []string
	g := uniseg.NewGraphemes(alphabet)
	for g.Next() {
		s := g.Str()
		if s == " " || s == "\n" || s == "\t" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
