// Package effects owns the set of rain renderers mounted in a document and
// propagates host visibility and resize events to them.
package effects

import (
	"time"

	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/rain"
)

// Document resolves mount names to containers.
type Document interface {
	Lookup(name string) (rain.Mount, bool)
}

// MountSpec declares one effect: where it mounts and how it looks.
type MountSpec struct {
	Name   string
	Config rain.Config
}

type Options struct {
	Logger *zap.Logger
	// NewRand supplies each renderer's randomness. Nil uses the global source.
	NewRand func(name string) rain.Rand
}

// Manager creates, schedules and tears down renderers. All methods must be
// called from the host's single update loop.
type Manager struct {
	doc       Document
	signals   *Signals
	newCanvas rain.CanvasFactory
	opts      Options
	log       *zap.Logger

	reg     *Registry
	visible bool
	cancels []func()
}

func NewManager(doc Document, signals *Signals, newCanvas rain.CanvasFactory, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		doc:       doc,
		signals:   signals,
		newCanvas: newCanvas,
		opts:      opts,
		log:       log,
		reg:       NewRegistry(),
		visible:   true,
	}
}

// InitAll creates and starts one renderer per spec and returns the handles
// by name. Specs whose mount is missing get an inert handle.
func (m *Manager) InitAll(specs []MountSpec) map[string]*rain.Renderer {
	m.listen()

	for _, spec := range specs {
		var rng rain.Rand
		if m.opts.NewRand != nil {
			rng = m.opts.NewRand(spec.Name)
		}

		// The old handle detaches from the mount, so it must go before the
		// new surface is attached.
		if prev, ok := m.reg.Get(spec.Name); ok {
			prev.Destroy()
		}

		mount, ok := m.doc.Lookup(spec.Name)
		if !ok {
			m.log.Debug("mount point not found", zap.String("mount", spec.Name))
			mount = nil
		}

		h := rain.New(mount, m.newCanvas, spec.Config, rng)
		h.Start()
		if !m.visible {
			h.Pause()
		}
		m.reg.Put(spec.Name, h)

		if !h.Inert() {
			w, hgt := mount.Measure()
			m.log.Debug("effect mounted",
				zap.String("mount", spec.Name),
				zap.Int("width", w),
				zap.Int("height", hgt),
				zap.Int("columns", h.Columns()),
				zap.Duration("cadence", h.Cadence()),
			)
		}
	}

	return m.reg.Snapshot()
}

func (m *Manager) listen() {
	if m.signals == nil || len(m.cancels) > 0 {
		return
	}
	m.cancels = append(m.cancels,
		m.signals.OnVisibility(m.SetVisible),
		m.signals.OnResize(m.ResizeAll),
	)
}

// Handle returns the renderer mounted under name.
func (m *Manager) Handle(name string) (*rain.Renderer, bool) {
	return m.reg.Get(name)
}

// Each visits every renderer in declaration order.
func (m *Manager) Each(fn func(name string, h *rain.Renderer)) {
	m.reg.Each(fn)
}

func (m *Manager) Len() int { return m.reg.Len() }

func (m *Manager) Visible() bool { return m.visible }

// SetVisible applies a page visibility transition.
func (m *Manager) SetVisible(visible bool) {
	if visible == m.visible {
		return
	}
	m.visible = visible
	if visible {
		m.ResumeAll()
	} else {
		m.PauseAll()
	}
	m.log.Debug("visibility changed", zap.Bool("visible", visible))
}

func (m *Manager) PauseAll() {
	m.reg.Each(func(_ string, h *rain.Renderer) { h.Pause() })
}

func (m *Manager) ResumeAll() {
	m.reg.Each(func(_ string, h *rain.Renderer) { h.Resume() })
}

// ResizeAll re-measures every renderer's mount.
func (m *Manager) ResizeAll() {
	m.reg.Each(func(_ string, h *rain.Renderer) { h.Resize() })
}

// Tick offers the timestamp to every renderer in turn and returns how many
// drew a frame.
func (m *Manager) Tick(ts time.Duration) int {
	if !m.visible {
		return 0
	}
	drawn := 0
	m.reg.Each(func(_ string, h *rain.Renderer) {
		if h.Tick(ts) {
			drawn++
		}
	})
	return drawn
}

// CleanupAll destroys every renderer and detaches from the host signals.
// Calling it again is a no-op.
func (m *Manager) CleanupAll() {
	n := m.reg.Len()
	m.reg.Each(func(_ string, h *rain.Renderer) { h.Destroy() })
	m.reg.Clear()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	if n > 0 {
		m.log.Info("effects cleaned up", zap.Int("count", n))
	}
}
