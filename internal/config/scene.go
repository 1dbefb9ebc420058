package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iburimskiy/matrix-rain/internal/rain"
)

//go:embed default_scene.yaml
var defaultScene []byte

var ErrInvalidScene = errors.New("invalid scene")

const (
	cfgWindow     = "window"
	cfgBase       = "base"
	cfgMounts     = "mounts"
	CfgSoundtrack = "soundtrack"
)

type Window struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
	TPS    int    `mapstructure:"tps"`
}

// Region is a mount's box as fractions of the window.
type Region struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	W float64 `mapstructure:"w"`
	H float64 `mapstructure:"h"`
}

// Effect is the YAML form of rain.Override. Unset keys keep the value
// inherited from the layer below.
type Effect struct {
	Glyphs         string   `mapstructure:"glyphs"`
	Color          string   `mapstructure:"color"`
	GlyphSize      *float64 `mapstructure:"glyph_size"`
	CadenceMS      *int     `mapstructure:"cadence_ms"`
	HoverCadenceMS *int     `mapstructure:"hover_cadence_ms"`
	Opacity        *float64 `mapstructure:"opacity"`
	FadeOpacity    *float64 `mapstructure:"fade_opacity"`
	Density        *float64 `mapstructure:"density"`
	SpawnRate      *float64 `mapstructure:"spawn_rate"`
	MaxActive      *int     `mapstructure:"max_active"`
	ResetChance    *float64 `mapstructure:"reset_chance"`
	CircularClip   *bool    `mapstructure:"circular_clip"`
}

type Mount struct {
	Name          string `mapstructure:"name"`
	Region        Region `mapstructure:"region"`
	Variant       string `mapstructure:"variant"`
	Enabled       *bool  `mapstructure:"enabled"`
	AudioReactive bool   `mapstructure:"audio_reactive"`
	Effect        Effect `mapstructure:"effect"`
}

// Active reports whether the mount exists in the window. Disabled mounts
// are still declared so their effects resolve to inert handles.
func (m Mount) Active() bool {
	return m.Enabled == nil || *m.Enabled
}

type Scene struct {
	Window     Window  `mapstructure:"window"`
	Base       Effect  `mapstructure:"base"`
	Mounts     []Mount `mapstructure:"mounts"`
	Soundtrack string  `mapstructure:"soundtrack"`
}

// Resolved is a mount with its final effect configuration.
type Resolved struct {
	Mount
	Config rain.Config
}

// Load reads the scene at path, or the built-in scene when path is empty.
// Flags, when given, override matching scene keys.
func Load(path string, flags *pflag.FlagSet) (*Scene, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if flags != nil {
		if f := flags.Lookup(CfgSoundtrack); f != nil {
			if err := v.BindPFlag(CfgSoundtrack, f); err != nil {
				return nil, err
			}
		}
	}

	if path == "" {
		if err := v.ReadConfig(bytes.NewReader(defaultScene)); err != nil {
			return nil, fmt.Errorf("read built-in scene: %w", err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read scene %s: %w", path, err)
		}
	}

	return decode(v)
}

// Parse reads a scene from YAML bytes.
func Parse(data []byte) (*Scene, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("window.width", WindowWidth)
	v.SetDefault("window.height", WindowHeight)
	v.SetDefault("window.title", WindowTitle)
	v.SetDefault("window.tps", TPS)
}

func decode(v *viper.Viper) (*Scene, error) {
	s := &Scene{
		Window: Window{
			Width:  v.GetInt(cfgWindow + ".width"),
			Height: v.GetInt(cfgWindow + ".height"),
			Title:  v.GetString(cfgWindow + ".title"),
			TPS:    v.GetInt(cfgWindow + ".tps"),
		},
	}
	if err := v.UnmarshalKey(cfgBase, &s.Base); err != nil {
		return nil, fmt.Errorf("%w: base: %v", ErrInvalidScene, err)
	}
	if err := v.UnmarshalKey(cfgMounts, &s.Mounts); err != nil {
		return nil, fmt.Errorf("%w: mounts: %v", ErrInvalidScene, err)
	}
	s.Soundtrack = v.GetString(CfgSoundtrack)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks window geometry and every mount's region, name and
// effect fields.
func (s *Scene) Validate() error {
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidScene, s.Window.Width, s.Window.Height)
	}
	if s.Window.TPS <= 0 {
		return fmt.Errorf("%w: tps %d", ErrInvalidScene, s.Window.TPS)
	}

	seen := map[string]bool{}
	for i, m := range s.Mounts {
		if m.Name == "" {
			return fmt.Errorf("%w: mount #%d has no name", ErrInvalidScene, i)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: duplicate mount %q", ErrInvalidScene, m.Name)
		}
		seen[m.Name] = true
		if err := m.Region.validate(); err != nil {
			return fmt.Errorf("%w: mount %q: %v", ErrInvalidScene, m.Name, err)
		}
		if _, ok := rain.Variant(m.Variant); !ok {
			return fmt.Errorf("%w: mount %q: unknown variant %q", ErrInvalidScene, m.Name, m.Variant)
		}
	}
	_, err := s.Resolve()
	return err
}

const regionSlack = 1e-9

func (r Region) validate() error {
	in01 := func(v float64) bool { return v >= 0 && v <= 1 }
	if !in01(r.X) || !in01(r.Y) || !in01(r.W) || !in01(r.H) {
		return fmt.Errorf("region %+v outside [0,1]", r)
	}
	if r.X+r.W > 1+regionSlack || r.Y+r.H > 1+regionSlack {
		return fmt.Errorf("region %+v overflows the window", r)
	}
	return nil
}

// Resolve layers base, variant and mount effect over the built-in defaults
// for every mount.
func (s *Scene) Resolve() ([]Resolved, error) {
	base, err := s.Base.Override()
	if err != nil {
		return nil, fmt.Errorf("%w: base: %v", ErrInvalidScene, err)
	}

	out := make([]Resolved, 0, len(s.Mounts))
	for _, m := range s.Mounts {
		variant, _ := rain.Variant(m.Variant)
		own, err := m.Effect.Override()
		if err != nil {
			return nil, fmt.Errorf("%w: mount %q: %v", ErrInvalidScene, m.Name, err)
		}
		cfg := rain.DefaultConfig().Merge(base).Merge(variant).Merge(own).WithDefaults()
		if err := checkConfig(cfg); err != nil {
			return nil, fmt.Errorf("%w: mount %q: %v", ErrInvalidScene, m.Name, err)
		}
		out = append(out, Resolved{Mount: m, Config: cfg})
	}
	return out, nil
}

func checkConfig(c rain.Config) error {
	switch {
	case c.Density <= 0 || c.Density > 1:
		return fmt.Errorf("density %v outside (0,1]", c.Density)
	case c.Opacity < 0 || c.Opacity > 1:
		return fmt.Errorf("opacity %v outside [0,1]", c.Opacity)
	case c.FadeOpacity < 0 || c.FadeOpacity > 1:
		return fmt.Errorf("fade opacity %v outside [0,1]", c.FadeOpacity)
	case c.SpawnRate < 0 || c.SpawnRate > 1:
		return fmt.Errorf("spawn rate %v outside [0,1]", c.SpawnRate)
	case c.ResetChance < 0 || c.ResetChance > 1:
		return fmt.Errorf("reset chance %v outside [0,1]", c.ResetChance)
	case c.MaxActive < 0:
		return fmt.Errorf("max active %d is negative", c.MaxActive)
	}
	return nil
}

// Override converts the YAML fields into a rain.Override.
func (e Effect) Override() (rain.Override, error) {
	var o rain.Override

	if e.Glyphs != "" {
		o.Glyphs = rain.SplitGlyphs(e.Glyphs)
		if len(o.Glyphs) == 0 {
			return o, fmt.Errorf("glyph alphabet %q has no visible glyphs", e.Glyphs)
		}
	}
	if e.Color != "" {
		c, err := ParseColor(e.Color)
		if err != nil {
			return o, err
		}
		o.Color = &c
	}
	if e.GlyphSize != nil {
		if *e.GlyphSize <= 0 {
			return o, fmt.Errorf("glyph size %v must be positive", *e.GlyphSize)
		}
		o.GlyphSize = e.GlyphSize
	}
	if e.CadenceMS != nil {
		if *e.CadenceMS <= 0 {
			return o, fmt.Errorf("cadence %dms must be positive", *e.CadenceMS)
		}
		d := time.Duration(*e.CadenceMS) * time.Millisecond
		o.Cadence = &d
	}
	if e.HoverCadenceMS != nil {
		if *e.HoverCadenceMS < 0 {
			return o, fmt.Errorf("hover cadence %dms is negative", *e.HoverCadenceMS)
		}
		d := time.Duration(*e.HoverCadenceMS) * time.Millisecond
		o.HoverCadence = &d
	}
	if e.Density != nil && (*e.Density <= 0 || *e.Density > 1) {
		return o, fmt.Errorf("density %v outside (0,1]", *e.Density)
	}
	if e.MaxActive != nil && *e.MaxActive < 0 {
		return o, fmt.Errorf("max active %d is negative", *e.MaxActive)
	}
	o.Opacity = e.Opacity
	o.FadeOpacity = e.FadeOpacity
	o.Density = e.Density
	o.SpawnRate = e.SpawnRate
	o.MaxActive = e.MaxActive
	o.ResetChance = e.ResetChance
	o.CircularClip = e.CircularClip
	return o, nil
}

// ParseColor accepts "#rrggbb" or "#rgb".
func ParseColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
