package effects

import "github.com/iburimskiy/matrix-rain/internal/rain"

// Registry maps mount names to their renderers in declaration order.
type Registry struct {
	order   []string
	handles map[string]*rain.Renderer
}

func NewRegistry() *Registry {
	return &Registry{handles: map[string]*rain.Renderer{}}
}

// Put stores h under name, keeping the name's original position. The
// renderer it replaces, if any, is returned.
func (r *Registry) Put(name string, h *rain.Renderer) (prev *rain.Renderer) {
	prev, ok := r.handles[name]
	if !ok {
		r.order = append(r.order, name)
	}
	r.handles[name] = h
	return prev
}

func (r *Registry) Get(name string) (*rain.Renderer, bool) {
	h, ok := r.handles[name]
	return h, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Each visits every renderer in declaration order.
func (r *Registry) Each(fn func(name string, h *rain.Renderer)) {
	for _, name := range r.order {
		fn(name, r.handles[name])
	}
}

// Snapshot returns a copy of the name to renderer map.
func (r *Registry) Snapshot() map[string]*rain.Renderer {
	out := make(map[string]*rain.Renderer, len(r.handles))
	for k, v := range r.handles {
		out[k] = v
	}
	return out
}

func (r *Registry) Clear() {
	r.order = nil
	r.handles = map[string]*rain.Renderer{}
}
