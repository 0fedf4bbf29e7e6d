// Package info provides the "Info" node kind, which summarizes its input.
package info

import (
	"context"

	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/table"
)

// Kind is the registered kind name.
const Kind = "Info"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, func(h node.Host) (node.Runtime, error) {
		return &runtime{host: h}, nil
	})
}

type runtime struct {
	host node.Host
}

func (r *runtime) OnSettingsChanged(context.Context, map[string]any) {}

func (r *runtime) OnInput(ctx context.Context, data node.Value) {
	node.ClearMessages(ctx, r.host)

	tbl, ok := data.(*table.Table)
	if !ok || tbl == nil {
		if data == nil {
			node.Info(ctx, r.host, "No data", "No data loaded")
		} else {
			node.Warning(ctx, r.host, "Unsupported input", "Expected a data table")
		}
		r.host.Notify(ctx, map[string]any{"instances": nil, "attributes": nil})
		return
	}
	r.host.Notify(ctx, map[string]any{
		"instances":  tbl.Rows,
		"attributes": len(tbl.Attributes()),
	})
}
