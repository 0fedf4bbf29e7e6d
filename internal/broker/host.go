package broker

import (
	"context"
	"fmt"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/nodestore"
	"github.com/vk/widgetgrid/internal/wire"
)

// host is the broker side of one node. Every method except Submit must be
// called with the broker lock held, which is the case for all runtime
// callbacks.
type host struct {
	b  *Broker
	id string
	// handle is set once the node is registered. A removed and re-created
	// node gets a new host, so a stale host never touches the new node.
	handle *nodestore.Handle
}

var _ node.Host = (*host)(nil)

func (h *host) ID() string { return h.id }

func (h *host) Settings() map[string]any {
	if h.handle == nil {
		return map[string]any{}
	}
	return h.handle.Node.Settings.Map()
}

// live reports whether this host still serves the registered node.
func (h *host) live(ctx context.Context) bool {
	if h.handle == nil {
		return false
	}
	cur, err := h.b.nodes.Get(ctx, h.id)
	return err == nil && cur == h.handle
}

func (h *host) Emit(ctx context.Context, data node.Value) {
	if !h.live(ctx) {
		ctxlog.FromContext(ctx).Debug("Dropped emit from a removed node.", "node", h.id)
		return
	}
	h.b.graph.Emit(ctx, h.id, data)
}

func (h *host) Notify(ctx context.Context, state map[string]any) {
	if !h.live(ctx) {
		ctxlog.FromContext(ctx).Debug("Dropped notify from a node that is not live.", "node", h.id)
		return
	}
	payload, err := wire.Marshal(state)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to encode node state.", "node", h.id, "error", err)
		return
	}
	h.handle.Node.View.Merge(state)
	h.b.log.AppendSettings(h.id, payload)
	h.b.outbox.broadcast(wire.SettingsChannel(h.id), payload)
}

func (h *host) Submit(fn func(ctx context.Context)) {
	b := h.b
	b.async.add()
	go func() {
		defer b.async.release()
		b.mu.Lock()
		defer b.mu.Unlock()

		ctx := ctxlog.With(b.life, "node", h.id)
		if !h.live(ctx) {
			ctxlog.FromContext(ctx).Debug("Dropped scheduled work of a removed node.")
			return
		}
		b.safeCall(ctx, h.id, "submit", func() { fn(ctx) })
	}()
}

// safeCall runs a runtime callback. A panic is logged and does not take the
// broker down.
func (b *Broker) safeCall(ctx context.Context, nodeID, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Node runtime panicked.", "node", nodeID, "callback", what, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
