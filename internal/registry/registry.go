package registry

import (
	"sort"
)

// Module is the interface that all runner modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the runners registered for a single application instance.
type Registry struct {
	runners map[string]*RegisteredRunner
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{runners: make(map[string]*RegisteredRunner)}
}

// Load registers every module in mods.
func (r *Registry) Load(mods ...Module) *Registry {
	for _, m := range mods {
		m.Register(r)
	}
	return r
}

// Runner returns the runner registered under name.
func (r *Registry) Runner(name string) (*RegisteredRunner, bool) {
	h, ok := r.runners[name]
	return h, ok
}

// Names returns the registered runner names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
