package broker

import (
	"context"
	"maps"

	"github.com/vk/widgetgrid/internal/channels"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/wire"
	"go.trai.ch/zerr"
)

// settingsHandler serves the settings channel of one node.
func (b *Broker) settingsHandler(nodeID string) channels.Handler {
	channel := wire.SettingsChannel(nodeID)

	return func(ctx context.Context, clientID string, payload []byte) error {
		if _, ok := wire.Sentinel(payload); ok {
			b.mu.Lock()
			defer b.mu.Unlock()
			h, err := b.nodes.Get(ctx, nodeID)
			if err != nil {
				return zerr.With(zerr.Wrap(ErrChannelRace, "settings init"), "node", nodeID)
			}
			b.outbox.sendTo(clientID, channel, viewPayload(h.Node.View))
			return nil
		}

		delta, sessionID, err := wire.DecodeSettings(payload)
		if err != nil {
			return zerr.With(err, "node", nodeID)
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		// The channel may have been closed while this message waited for
		// the lock.
		h, err := b.nodes.Get(ctx, nodeID)
		if err != nil || !b.channels.IsOpen(channel) {
			return zerr.With(zerr.Wrap(ErrChannelRace, "apply settings"), "node", nodeID)
		}
		ctxlog.FromContext(ctx).Debug("Settings received.", "node", nodeID, "keys", len(delta))

		h.Node.Settings.Merge(delta)
		h.Node.View.Merge(delta)
		b.log.AppendSettings(nodeID, payload)
		b.persistLocked(ctx, sessionID, func(session string) persist.Delta {
			return persist.UpdateSettings(session, nodeID, delta)
		})
		b.outbox.broadcast(channel, payload)

		b.safeCall(ctx, nodeID, "settings", func() { h.Runtime.OnSettingsChanged(ctx, maps.Clone(delta)) })
		return nil
	}
}
