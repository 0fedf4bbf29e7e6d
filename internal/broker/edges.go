package broker

import (
	"context"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/wire"
	"go.trai.ch/zerr"
)

// handleEdges serves the edge topology channel.
func (b *Broker) handleEdges(ctx context.Context, clientID string, payload []byte) error {
	if _, ok := wire.Sentinel(payload); ok {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.outbox.sendTo(clientID, wire.EdgesChannel, b.edgesInitLocked(ctx))
		return nil
	}

	ev, err := wire.Decode(payload)
	if err != nil {
		return err
	}
	ctx = ctxlog.With(ctx, "type", ev.Type)
	ctxlog.FromContext(ctx).Debug("Edge event received.")

	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Type {
	case wire.TypeAddConnection:
		if err := b.connectLocked(ctx, ev.Source, ev.Target, ev.SessionID, payload); err != nil {
			return err
		}
	case wire.TypeRemoveConnection:
		b.disconnectLocked(ctx, ev.Source, ev.Target, ev.SessionID)
	case wire.TypeRemoveNodes:
		for _, id := range ev.IDs {
			b.detachLocked(ctx, id, ev.SessionID)
		}
	default:
		return zerr.With(zerr.Wrap(ErrMalformedEvent, "not an edge event"), "type", ev.Type)
	}
	b.outbox.broadcast(wire.EdgesChannel, payload)
	return nil
}

func (b *Broker) connectLocked(ctx context.Context, source, target, sessionID string, payload []byte) error {
	added, err := b.graph.Connect(ctx, source, target)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}
	b.log.AppendEdge(source, target, payload)
	b.persistLocked(ctx, sessionID, func(session string) persist.Delta {
		return persist.AppendEdge(session, sessionstore.Edge{Source: source, Target: target})
	})
	return nil
}

func (b *Broker) disconnectLocked(ctx context.Context, source, target, sessionID string) {
	removed := b.graph.Disconnect(ctx, source, target)
	if !removed {
		return
	}
	b.log.PruneEdge(source, target)
	b.persistLocked(ctx, sessionID, func(session string) persist.Delta {
		return persist.RemoveEdge(session, sessionstore.Edge{Source: source, Target: target})
	})
}

// detachLocked drops the edges incident to id without touching the node.
func (b *Broker) detachLocked(ctx context.Context, id, sessionID string) {
	for _, e := range b.graph.Detach(ctx, id) {
		b.persistLocked(ctx, sessionID, func(session string) persist.Delta {
			return persist.RemoveEdge(session, sessionstore.Edge{Source: e.Source, Target: e.Target})
		})
	}
	b.log.PruneIncident(id)
}
