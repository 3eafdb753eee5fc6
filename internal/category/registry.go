package category

import "sync/atomic"

// Registry holds the model currently in service. Readers always observe a
// fully constructed model or nil; replacement is a single pointer swap.
type Registry struct {
	current atomic.Pointer[Model]
}

// NewRegistry returns a registry serving m, which may be nil.
func NewRegistry(m *Model) *Registry {
	r := &Registry{}
	if m != nil {
		r.current.Store(m)
	}
	return r
}

// Current returns the model in service, or nil when none is loaded.
func (r *Registry) Current() *Model {
	return r.current.Load()
}

// Swap publishes m and returns the model it replaced.
func (r *Registry) Swap(m *Model) *Model {
	return r.current.Swap(m)
}
