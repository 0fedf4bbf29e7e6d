package testutil

import (
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
)

// SimpleModule is a test helper for easily registering a single node kind.
type SimpleModule struct {
	Kind string
	Ctor node.Constructor
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Kind != "" && m.Ctor != nil {
		r.RegisterKind(m.Kind, m.Ctor)
	}
}
