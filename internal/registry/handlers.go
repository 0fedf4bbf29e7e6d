package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/widgetgrid/internal/node"
)

// RegisterKind registers the constructor for a node kind.
func (r *Registry) RegisterKind(name string, ctor node.Constructor) {
	if _, exists := r.KindRegistry[name]; exists {
		panic(fmt.Sprintf("node kind '%s' already registered", name))
	}
	if ctor == nil {
		panic(fmt.Sprintf("node kind '%s' registered with a nil constructor", name))
	}
	slog.Debug("Registering node kind.", "kind", name)
	r.KindRegistry[name] = ctor
}
