package broker

import (
	"context"
	"maps"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/nodestore"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/wire"
	"go.trai.ch/zerr"
)

// handleNodes serves the node topology channel.
func (b *Broker) handleNodes(ctx context.Context, clientID string, payload []byte) error {
	if sentinel, ok := wire.Sentinel(payload); ok {
		if sentinel == wire.ReplayRequest {
			return b.replay(ctx, clientID)
		}
		return b.bootstrap(ctx, clientID)
	}

	ev, err := wire.Decode(payload)
	if err != nil {
		return err
	}
	ctx = ctxlog.With(ctx, "type", ev.Type)
	ctxlog.FromContext(ctx).Debug("Node event received.")

	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Type {
	case wire.TypeAddNode:
		return b.addNodeLocked(ctx, ev, payload)
	case wire.TypeRemoveNode:
		b.removeNodeLocked(ctx, ev.ID, ev.SessionID)
	case wire.TypeRemoveNodes:
		for _, id := range ev.IDs {
			b.removeNodeLocked(ctx, id, ev.SessionID)
		}
	case wire.TypeMoveNode:
		if err := b.moveNodeLocked(ctx, ev, payload); err != nil {
			return err
		}
	default:
		return zerr.With(zerr.Wrap(ErrMalformedEvent, "not a node event"), "type", ev.Type)
	}
	b.outbox.broadcast(wire.NodesChannel, payload)
	return nil
}

// addNodeLocked applies an addNode event. The raw event is broadcast as soon
// as the node exists, before Start, so clients know the node before any of
// its state messages.
func (b *Broker) addNodeLocked(ctx context.Context, ev *wire.Event, payload []byte) error {
	spec := node.Spec{
		ID:       ev.ID,
		Kind:     ev.Kind,
		Position: node.Position{X: ev.X, Y: ev.Y},
		Meta:     ev.Meta(),
	}
	h, err := b.createNodeLocked(ctx, spec, payload)
	if err != nil {
		return err
	}
	b.outbox.broadcast(wire.NodesChannel, payload)

	b.startLocked(ctx, h, ev.Settings)

	b.persistLocked(ctx, ev.SessionID, func(session string) persist.Delta {
		return persist.AppendNode(session, record(h.Node))
	})
	if len(ev.Settings) > 0 {
		settings := maps.Clone(ev.Settings)
		b.persistLocked(ctx, ev.SessionID, func(session string) persist.Delta {
			return persist.UpdateSettings(session, h.Node.ID, settings)
		})
	}
	return nil
}

// createNodeLocked registers a node, opens its settings channel and records
// payload in the node log. Nothing is left behind on failure.
func (b *Broker) createNodeLocked(ctx context.Context, spec node.Spec, payload []byte) (*nodestore.Handle, error) {
	if b.nodes.Has(ctx, spec.ID) {
		return nil, zerr.With(zerr.Wrap(ErrAlreadyExists, "add node"), "node", spec.ID)
	}

	hst := &host{b: b, id: spec.ID}
	h, err := b.nodes.Create(ctx, spec, hst)
	if err != nil {
		return nil, zerr.Wrap(err, "add node")
	}
	hst.handle = h

	if err := b.channels.Open(ctx, wire.SettingsChannel(spec.ID), b.settingsHandler(spec.ID)); err != nil {
		b.nodes.Remove(ctx, spec.ID)
		return nil, zerr.Wrap(err, "add node")
	}
	b.log.AppendNode(spec.ID, payload)
	return h, nil
}

// startLocked runs the runtime's Start hook, then applies initial settings.
func (b *Broker) startLocked(ctx context.Context, h *nodestore.Handle, settings map[string]any) {
	if s, ok := h.Runtime.(node.Starter); ok {
		b.safeCall(ctx, h.Node.ID, "start", func() { s.Start(ctx) })
	}
	if len(settings) == 0 {
		return
	}
	h.Node.Settings.Merge(settings)
	h.Node.View.Merge(settings)
	b.safeCall(ctx, h.Node.ID, "settings", func() { h.Runtime.OnSettingsChanged(ctx, maps.Clone(settings)) })
}

// removeNodeLocked detaches, unregisters and forgets a node. Removing an
// absent node is a no-op.
func (b *Broker) removeNodeLocked(ctx context.Context, id, sessionID string) {
	if !b.nodes.Has(ctx, id) {
		ctxlog.FromContext(ctx).Debug("Node already removed.", "node", id)
		return
	}
	b.graph.RemoveNode(ctx, id)
	b.nodes.Remove(ctx, id)

	b.persistLocked(ctx, sessionID, func(session string) persist.Delta {
		return persist.RemoveNode(session, id)
	})
}

func (b *Broker) moveNodeLocked(ctx context.Context, ev *wire.Event, payload []byte) error {
	h, err := b.nodes.Get(ctx, ev.ID)
	if err != nil {
		return zerr.Wrap(err, "move node")
	}
	if ev.HasX {
		h.Node.Position.X = ev.X
	}
	if ev.HasY {
		h.Node.Position.Y = ev.Y
	}
	b.log.AppendNode(ev.ID, payload)

	b.persistLocked(ctx, ev.SessionID, func(session string) persist.Delta {
		return persist.AppendNode(session, record(h.Node))
	})
	return nil
}

func record(n *node.Node) sessionstore.NodeRecord {
	return sessionstore.NodeRecord{
		ID:   n.ID,
		Kind: n.Kind,
		X:    n.Position.X,
		Y:    n.Position.Y,
		Meta: maps.Clone(n.Meta),
	}
}
