package registry

import (
	"maps"
	"sort"

	"github.com/vk/widgetgrid/internal/node"
	"go.trai.ch/zerr"
)

// ErrUnknownKind is returned when a node kind has no registered constructor.
var ErrUnknownKind = zerr.New("unknown node kind")

// Module is the interface that all node-kind packages must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the node-kind constructors for a single application instance.
type Registry struct {
	KindRegistry map[string]node.Constructor
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		KindRegistry: make(map[string]node.Constructor),
	}
}

// NewWithModules creates a registry and lets every module register itself.
func NewWithModules(modules ...Module) *Registry {
	r := New()
	for _, mod := range modules {
		mod.Register(r)
	}
	return r
}

// Has reports whether kind has a registered constructor.
func (r *Registry) Has(kind string) bool {
	_, ok := r.KindRegistry[kind]
	return ok
}

// Kinds returns the registered kind names in lexical order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.KindRegistry))
	for k := range r.KindRegistry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Construct builds the runtime for a node of the given kind.
func (r *Registry) Construct(kind string, host node.Host) (node.Runtime, error) {
	ctor, ok := r.KindRegistry[kind]
	if !ok {
		return nil, zerr.With(zerr.Wrap(ErrUnknownKind, "construct node"), "kind", kind)
	}
	rt, err := ctor(host)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "construct node"), "kind", kind)
	}
	return rt, nil
}

// Clone returns a registry sharing the same constructors. Tests use it to
// add kinds without touching the application registry.
func (r *Registry) Clone() *Registry {
	c := New()
	maps.Copy(c.KindRegistry, r.KindRegistry)
	return c
}
