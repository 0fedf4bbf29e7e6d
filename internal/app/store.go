package app

import (
	"context"

	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/inmemorysession"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/redissession"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"go.trai.ch/zerr"
)

// ErrUnknownBackend is returned for a store backend that is not compiled in.
var ErrUnknownBackend = zerr.New("unknown session store backend")

// openStore connects the configured session store backend.
func openStore(ctx context.Context, cfg config.Store) (sessionstore.Store, error) {
	logger := ctxlog.FromContext(ctx)
	switch cfg.Backend {
	case "memory":
		logger.Info("Using in-memory session store.")
		return inmemorysession.New(), nil
	case "redis":
		s, err := redissession.Dial(ctx, cfg.RedisURL, redissession.Options{KeyPrefix: cfg.KeyPrefix, TTL: cfg.TTL})
		if err != nil {
			return nil, err
		}
		logger.Info("Using redis session store.", "key_prefix", cfg.KeyPrefix, "ttl", cfg.TTL)
		return s, nil
	}
	return nil, zerr.With(zerr.Wrap(ErrUnknownBackend, "open session store"), "backend", cfg.Backend)
}

// seedSnapshot builds the stored form of a configured seed.
func seedSnapshot(seed *config.Seed) *sessionstore.Snapshot {
	snap := sessionstore.NewSnapshot()
	for _, n := range seed.Nodes {
		snap.UpsertNode(sessionstore.NodeRecord{ID: n.ID, Kind: n.Kind, X: n.X, Y: n.Y})
		if len(n.Settings) > 0 {
			snap.MergeSettings(n.ID, n.Settings)
		}
	}
	for _, c := range seed.Connections {
		snap.AddEdge(sessionstore.Edge{Source: c.Source, Target: c.Target})
	}
	return snap
}

// applySeeds writes every seed whose session does not exist yet and waits
// for the writes to land.
func applySeeds(ctx context.Context, seeds []*config.Seed, store sessionstore.Store, w *persist.Writer) error {
	logger := ctxlog.FromContext(ctx)
	for _, seed := range seeds {
		_, ok, err := store.Get(ctx, seed.SessionID)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "read seeded session"), "session", seed.SessionID)
		}
		if ok {
			logger.Debug("Session exists, seed skipped.", "session", seed.SessionID)
			continue
		}
		w.Enqueue(ctx, persist.Put(seed.SessionID, seedSnapshot(seed)))
		logger.Info("Session seeded.", "session", seed.SessionID, "nodes", len(seed.Nodes), "connections", len(seed.Connections))
	}
	return w.Flush(ctx)
}
