package testutil

import (
	"context"

	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
)

// NoOpModule registers a single "NoOp" kind whose runtime ignores every
// callback. It's useful for tests that only care about topology.
type NoOpModule struct{}

type noopRuntime struct{}

func (noopRuntime) OnSettingsChanged(context.Context, map[string]any) {}
func (noopRuntime) OnInput(context.Context, node.Value)               {}

// Register registers the "NoOp" kind.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterKind("NoOp", func(node.Host) (node.Runtime, error) {
		return noopRuntime{}, nil
	})
}
