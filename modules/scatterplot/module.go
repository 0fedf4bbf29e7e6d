// Package scatterplot provides the "Scatter Plot" node kind. It publishes
// the coordinates of two numeric columns of its input table; rows missing
// either value are left out.
package scatterplot

import (
	"context"

	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/table"
)

// Kind is the registered kind name.
const Kind = "Scatter Plot"

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
	data *table.Table
	x, y string
}

func (r *runtime) OnInput(ctx context.Context, data node.Value) {
	node.ClearMessages(ctx, r.host)
	r.data, _ = data.(*table.Table)
	r.x, r.y = "", ""

	if r.data == nil {
		r.host.Notify(ctx, map[string]any{"attrs": []string{}, "x": nil, "y": nil})
		r.update(ctx)
		return
	}

	numeric := r.data.Numeric()
	if len(numeric) < 2 {
		node.Warning(ctx, r.host, "Not enough numeric columns", "A scatter plot needs two numeric columns")
		r.host.Notify(ctx, map[string]any{"attrs": r.data.Names(), "x": nil, "y": nil})
		r.data = nil
		r.update(ctx)
		return
	}
	r.x, r.y = numeric[0], numeric[1]
	r.host.Notify(ctx, map[string]any{"attrs": r.data.Names(), "x": r.x, "y": r.y, "color": nil})
	r.update(ctx)
}

func (r *runtime) OnSettingsChanged(ctx context.Context, delta map[string]any) {
	if r.data == nil {
		return
	}
	changed := false
	for _, axis := range []struct {
		key string
		dst *string
	}{{"x", &r.x}, {"y", &r.y}} {
		name, ok := delta[axis.key].(string)
		if !ok {
			continue
		}
		if _, exists := r.data.Column(name); !exists {
			node.Error(ctx, r.host, "Unknown column", name)
			continue
		}
		*axis.dst = name
		changed = true
	}
	if changed {
		r.update(ctx)
	}
}

func (r *runtime) update(ctx context.Context) {
	if r.data == nil {
		r.host.Notify(ctx, map[string]any{"datax": nil, "datay": nil})
		return
	}
	x, _ := r.data.Column(r.x)
	y, _ := r.data.Column(r.y)
	if x == nil || y == nil || !x.Numeric || !y.Numeric {
		node.Error(ctx, r.host, "Cannot plot non-numeric column", r.x+", "+r.y)
		r.host.Notify(ctx, map[string]any{"datax": nil, "datay": nil})
		return
	}
	xs, ys := table.Pairs(x, y)
	r.host.Notify(ctx, map[string]any{"datax": xs, "datay": ys})
}
