package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/ctxlog"
)

// ValidateSeeds checks that every node declared by a configured session seed
// uses a registered kind and that seed connections only reference declared
// nodes. It collects every problem instead of stopping at the first one.
func (r *Registry) ValidateSeeds(ctx context.Context, model *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, seed := range model.Seeds {
		declared := make(map[string]struct{}, len(seed.Nodes))
		for _, n := range seed.Nodes {
			if _, dup := declared[n.ID]; dup {
				errs = append(errs, fmt.Sprintf("seed '%s': node '%s' declared twice", seed.SessionID, n.ID))
			}
			declared[n.ID] = struct{}{}
			if !r.Has(n.Kind) {
				errs = append(errs, fmt.Sprintf("seed '%s': node '%s' uses unknown kind '%s'", seed.SessionID, n.ID, n.Kind))
			}
		}
		for _, c := range seed.Connections {
			if _, ok := declared[c.Source]; !ok {
				errs = append(errs, fmt.Sprintf("seed '%s': connection source '%s' is not a declared node", seed.SessionID, c.Source))
			}
			if _, ok := declared[c.Target]; !ok {
				errs = append(errs, fmt.Sprintf("seed '%s': connection target '%s' is not a declared node", seed.SessionID, c.Target))
			}
		}
		logger.Debug("Seed validated.", "session", seed.SessionID, "nodes", len(seed.Nodes), "connections", len(seed.Connections))
	}

	if len(errs) > 0 {
		return fmt.Errorf("seed validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
