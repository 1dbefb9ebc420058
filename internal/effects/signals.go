package effects

// Signals carries the host events renderers react to. The host emits; the
// manager subscribes once and detaches on cleanup.
type Signals struct {
	nextID     int
	visibility map[int]func(visible bool)
	resize     map[int]func()
}

func NewSignals() *Signals {
	return &Signals{
		visibility: map[int]func(bool){},
		resize:     map[int]func(){},
	}
}

// OnVisibility registers fn and returns a function that removes it.
func (s *Signals) OnVisibility(fn func(visible bool)) (cancel func()) {
	id := s.nextID
	s.nextID++
	s.visibility[id] = fn
	return func() { delete(s.visibility, id) }
}

// OnResize registers fn and returns a function that removes it.
func (s *Signals) OnResize(fn func()) (cancel func()) {
	id := s.nextID
	s.nextID++
	s.resize[id] = fn
	return func() { delete(s.resize, id) }
}

func (s *Signals) EmitVisibility(visible bool) {
	for _, fn := range s.visibility {
		fn(visible)
	}
}

func (s *Signals) EmitResize() {
	for _, fn := range s.resize {
		fn()
	}
}

// Listeners returns the number of live subscriptions.
func (s *Signals) Listeners() int {
	return len(s.visibility) + len(s.resize)
}
