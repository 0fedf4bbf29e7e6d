package broker

import (
	"context"
	"maps"
	"slices"

	"github.com/vk/widgetgrid/internal/ctxlog"
)

// State is the synchronization state of one client.
type State int

const (
	StateConnected State = iota
	StateBootstrapping
	StateSynchronized
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateBootstrapping:
		return "bootstrapping"
	case StateSynchronized:
		return "synchronized"
	}
	return "unknown"
}

type clientConn struct {
	state  State
	ctx    context.Context
	cancel context.CancelFunc
}

// Connect registers a client. Connecting a known client is a no-op.
func (b *Broker) Connect(ctx context.Context, clientID string) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	b.registerClientLocked(clientID)
	ctxlog.FromContext(ctx).Debug("Client connected.", "client", clientID)
}

func (b *Broker) registerClientLocked(clientID string) *clientConn {
	if c, ok := b.clients[clientID]; ok {
		return c
	}
	cctx, cancel := context.WithCancel(context.Background())
	c := &clientConn{state: StateConnected, ctx: cctx, cancel: cancel}
	b.clients[clientID] = c
	return c
}

// Disconnect forgets a client and cancels its in-flight requests.
func (b *Broker) Disconnect(ctx context.Context, clientID string) {
	b.clientsMu.Lock()
	c, ok := b.clients[clientID]
	delete(b.clients, clientID)
	b.clientsMu.Unlock()

	if ok {
		c.cancel()
		ctxlog.FromContext(ctx).Debug("Client disconnected.", "client", clientID, "state", c.state)
	}
}

// ClientState returns the state of a connected client.
func (b *Broker) ClientState(clientID string) (State, bool) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	c, ok := b.clients[clientID]
	if !ok {
		return 0, false
	}
	return c.state, true
}

func (b *Broker) setState(clientID string, s State) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	if c, ok := b.clients[clientID]; ok {
		c.state = s
	}
}

// clientContext derives a request context that is also cancelled when the
// client disconnects. Messages from clients that are not connected run in a
// plain child context and do not register the client.
func (b *Broker) clientContext(ctx context.Context, clientID string) (context.Context, context.CancelFunc) {
	b.clientsMu.Lock()
	c, ok := b.clients[clientID]
	b.clientsMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	if !ok {
		return ctx, cancel
	}
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Clients returns the ids of connected clients, sorted.
func (b *Broker) Clients() []string {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	ids := slices.Collect(maps.Keys(b.clients))
	slices.Sort(ids)
	return ids
}
