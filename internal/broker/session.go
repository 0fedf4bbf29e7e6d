package broker

import (
	"context"
	"maps"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/wire"
	"go.trai.ch/zerr"
)

// bootstrap sends the full current view to one client: the node list, the
// edge list, then each node's state in creation order.
func (b *Broker) bootstrap(ctx context.Context, clientID string) error {
	b.setState(clientID, StateBootstrapping)
	defer b.setState(clientID, StateSynchronized)

	b.mu.Lock()
	defer b.mu.Unlock()

	handles := b.nodes.All(ctx)
	entries := make([]wire.NodeEntry, 0, len(handles))
	for _, h := range handles {
		entries = append(entries, entry(h.Node))
	}
	b.outbox.sendTo(clientID, wire.NodesChannel, wire.NodesInit(entries))
	b.outbox.sendTo(clientID, wire.EdgesChannel, b.edgesInitLocked(ctx))
	for _, h := range handles {
		b.outbox.sendTo(clientID, wire.SettingsChannel(h.Node.ID), viewPayload(h.Node.View))
	}
	ctxlog.FromContext(ctx).Debug("Bootstrap sent.", "nodes", len(handles))
	return nil
}

// replay sends the compacted event log to one client.
func (b *Broker) replay(ctx context.Context, clientID string) error {
	b.setState(clientID, StateBootstrapping)
	defer b.setState(clientID, StateSynchronized)

	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.log.Replay()
	for _, e := range entries {
		b.outbox.sendTo(clientID, e.Channel, e.Payload)
	}
	ctxlog.FromContext(ctx).Debug("Replay sent.", "entries", len(entries))
	return nil
}

func (b *Broker) edgesInitLocked(ctx context.Context) []byte {
	edges := b.graph.Edges(ctx)
	pairs := make([][2]string, 0, len(edges))
	for _, e := range edges {
		pairs = append(pairs, [2]string{e.Source, e.Target})
	}
	return wire.EdgesInit(pairs)
}

// handleLoadSession makes sessionID the current session. An absent session
// is created empty. A present one is rebuilt into the live graph step by
// step; nodes that are already live are skipped, so loading twice is safe.
func (b *Broker) handleLoadSession(ctx context.Context, clientID string, payload []byte) error {
	req, err := wire.DecodeLoadSession(payload)
	if err != nil {
		return err
	}
	ctx = ctxlog.With(ctx, "session", req.SessionID)
	logger := ctxlog.FromContext(ctx)

	snap, ok, err := b.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "load session"), "session", req.SessionID)
	}

	if !ok {
		b.mu.Lock()
		if err := b.createLocked(ctx, req.SessionID); err != nil {
			b.mu.Unlock()
			return err
		}
		b.outbox.sendTo(clientID, wire.LoadSessionChannel, wire.NewAck(req.SessionID, true, 0, 0))
		b.mu.Unlock()
		logger.Info("Session created.")
		return nil
	}

	b.setState(clientID, StateBootstrapping)
	defer b.setState(clientID, StateSynchronized)

	b.mu.Lock()
	b.session = req.SessionID
	b.mu.Unlock()

	created, err := b.rebuild(ctx, clientID, snap)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "rebuild session"), "session", req.SessionID)
	}

	b.mu.Lock()
	b.outbox.sendTo(clientID, wire.LoadSessionChannel, wire.NewAck(req.SessionID, false, len(snap.Nodes), len(snap.Edges)))
	b.mu.Unlock()
	logger.Info("Session loaded.", "nodes", len(snap.Nodes), "connections", len(snap.Edges), "created", len(created))
	return nil
}

// createLocked makes sessionID current and stores an empty snapshot for it
// unless one exists by then. With a writer the creation is queued behind the
// deltas already accepted, so a lagging writer cannot make it overwrite
// them; without one the store is written directly.
func (b *Broker) createLocked(ctx context.Context, sessionID string) error {
	if b.writer != nil {
		b.writer.Enqueue(ctx, persist.Create(sessionID))
	} else if _, err := b.sessions.Create(ctx, sessionID); err != nil {
		return zerr.With(zerr.Wrap(err, "create session"), "session", sessionID)
	}
	b.session = sessionID
	return nil
}

// rebuild recreates snap in the live graph: nodes, then edges, then the
// settings of the nodes it created. Each step takes the lock on its own and
// the request context is checked between steps. Rebuilt events are sent to
// clientID only and recorded in the event log; they are not persisted.
func (b *Broker) rebuild(ctx context.Context, clientID string, snap *sessionstore.Snapshot) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	var created []string

	for _, rec := range snap.Nodes {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		b.mu.Lock()
		spec := node.Spec{ID: rec.ID, Kind: rec.Kind, Position: node.Position{X: rec.X, Y: rec.Y}, Meta: rec.Meta}
		if b.nodes.Has(ctx, rec.ID) {
			b.mu.Unlock()
			logger.Debug("Node already live, skipping.", "node", rec.ID)
			continue
		}
		payload := wire.AddNode(entry(node.New(spec)))
		h, err := b.createNodeLocked(ctx, spec, payload)
		if err != nil {
			b.mu.Unlock()
			logger.Warn("Skipping node that cannot be rebuilt.", "node", rec.ID, "error", err)
			continue
		}
		b.outbox.sendTo(clientID, wire.NodesChannel, payload)
		b.startLocked(ctx, h, nil)
		b.mu.Unlock()
		created = append(created, rec.ID)
	}

	for _, e := range snap.Edges {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		b.mu.Lock()
		if b.graph.HasEdge(ctx, e.Source, e.Target) {
			b.mu.Unlock()
			continue
		}
		payload := wire.AddConnection(e.Source, e.Target)
		added, err := b.graph.Connect(ctx, e.Source, e.Target)
		if err != nil {
			b.mu.Unlock()
			logger.Warn("Skipping edge that cannot be rebuilt.", "source", e.Source, "target", e.Target, "error", err)
			continue
		}
		if added {
			b.log.AppendEdge(e.Source, e.Target, payload)
			b.outbox.sendTo(clientID, wire.EdgesChannel, payload)
		}
		b.mu.Unlock()
	}

	for _, id := range created {
		settings := snap.Settings[id]
		if len(settings) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return created, err
		}
		b.mu.Lock()
		h, err := b.nodes.Get(ctx, id)
		if err != nil {
			b.mu.Unlock()
			continue
		}
		payload := wire.MustMarshal(settings)
		h.Node.Settings.Merge(settings)
		h.Node.View.Merge(settings)
		b.log.AppendSettings(id, payload)
		b.outbox.sendTo(clientID, wire.SettingsChannel(id), payload)
		b.safeCall(ctx, id, "settings", func() { h.Runtime.OnSettingsChanged(ctx, maps.Clone(settings)) })
		b.mu.Unlock()
	}
	return created, nil
}

// handleClearSession drops every live node, edge, cached output and log
// entry and unsets the current session. The Session Store is untouched.
func (b *Broker) handleClearSession(ctx context.Context, clientID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.graph.Reset(ctx)
	b.nodes.Reset(ctx)
	b.log.Reset()
	previous := b.session
	b.session = ""

	b.outbox.broadcast(wire.NodesChannel, wire.NodesInit(nil))
	b.outbox.broadcast(wire.EdgesChannel, wire.EdgesInit(nil))
	ctxlog.FromContext(ctx).Info("Session cleared.", "previous_session", previous)
	return nil
}

func entry(n *node.Node) wire.NodeEntry {
	return wire.NodeEntry{ID: n.ID, Kind: n.Kind, X: n.Position.X, Y: n.Position.Y, Meta: n.Meta}
}

func viewPayload(view *node.Settings) []byte {
	b, err := view.MarshalJSON()
	if err != nil {
		return []byte("{}")
	}
	return b
}

// NodeIDs returns the ids of live nodes in creation order.
func (b *Broker) NodeIDs(ctx context.Context) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := []string{}
	for _, h := range b.nodes.All(ctx) {
		ids = append(ids, h.Node.ID)
	}
	return ids
}
