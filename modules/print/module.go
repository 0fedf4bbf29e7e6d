// Package print provides the "Print" node kind, which writes every input it
// receives. It is a debugging aid.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/table"
)

// Kind is the registered kind name.
const Kind = "Print"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed values. Nil means stdout.
	Out io.Writer
}

// Register registers the kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	w := &lockedWriter{w: out}
	r.RegisterKind(Kind, func(h node.Host) (node.Runtime, error) {
		return &runtime{host: h, out: w}, nil
	})
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

type runtime struct {
	host node.Host
	out  *lockedWriter
}

func (r *runtime) OnSettingsChanged(context.Context, map[string]any) {}

func (r *runtime) OnInput(ctx context.Context, data node.Value) {
	ctxlog.FromContext(ctx).Info("Printing input", "node", r.host.ID())

	r.out.mu.Lock()
	defer r.out.mu.Unlock()
	w := r.out.w

	fmt.Fprintf(w, "[%s]\n", r.host.ID())
	switch v := data.(type) {
	case nil:
		fmt.Fprintln(w, "      (null)")
	case *table.Table:
		fmt.Fprintf(w, "      table: %d rows, columns %q\n", v.Rows, v.Names())
	case map[string]any:
		// Sort keys for consistent output
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "      %s = %v\n", k, v[k])
		}
	default:
		fmt.Fprintf(w, "      %v\n", v)
	}
}
