package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vk/widgetgrid/internal/channels"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/eventlog"
	"github.com/vk/widgetgrid/internal/graph"
	"github.com/vk/widgetgrid/internal/inmemorystore"
	"github.com/vk/widgetgrid/internal/inmemorytopology"
	"github.com/vk/widgetgrid/internal/nodestore"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/wire"
	"go.trai.ch/zerr"
)

// Options tunes the broker.
type Options struct {
	// MaxCascadeDepth bounds propagation. Zero selects the graph default.
	MaxCascadeDepth int
}

// Broker is the single owner of live graph state.
type Broker struct {
	// mu is the global apply lock.
	mu sync.Mutex

	kinds    *registry.Registry
	nodes    nodestore.Store
	graph    *graph.Manager
	log      *eventlog.Log
	channels *channels.Registry
	sessions sessionstore.Store
	writer   *persist.Writer
	outbox   *outbox

	// session is the current session id, empty when none is loaded.
	session string
	// life is the context runtime callbacks scheduled with Submit run in.
	life  context.Context
	async pending

	clientsMu sync.Mutex
	clients   map[string]*clientConn
}

// New wires a broker over fresh in-memory node and edge stores.
// sessions and writer may be nil, which disables session loading and
// persistence respectively.
func New(kinds *registry.Registry, sessions sessionstore.Store, writer *persist.Writer, tr Transport, opts Options) *Broker {
	nodes := inmemorystore.New(kinds)
	b := &Broker{
		kinds:    kinds,
		nodes:    nodes,
		graph:    graph.New(inmemorytopology.New(), nodes, opts.MaxCascadeDepth),
		log:      eventlog.New(),
		channels: channels.New(),
		sessions: sessions,
		writer:   writer,
		outbox:   newOutbox(tr),
		life:     ctxlog.WithLogger(context.Background(), slog.Default()),
		clients:  make(map[string]*clientConn),
	}

	nodes.OnRemove(func(ctx context.Context, id string) {
		b.channels.Close(ctx, wire.SettingsChannel(id))
		b.log.Forget(id)
	})

	b.mustOpen(wire.NodesChannel, b.handleNodes)
	b.mustOpen(wire.EdgesChannel, b.handleEdges)
	b.mustOpen(wire.ClearSessionChannel, b.handleClearSession)
	if sessions != nil {
		b.mustOpen(wire.LoadSessionChannel, b.handleLoadSession)
	}
	return b
}

func (b *Broker) mustOpen(name string, h channels.Handler) {
	if err := b.channels.Open(b.life, name, h); err != nil {
		panic(err)
	}
}

// Run delivers queued broadcasts until ctx is cancelled. Runtime work
// scheduled with Submit runs in ctx from now on.
func (b *Broker) Run(ctx context.Context) error {
	b.mu.Lock()
	b.life = ctx
	b.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Broker started.", "kinds", b.kinds.Kinds())
	b.outbox.run(ctx)
	ctxlog.FromContext(ctx).Info("Broker stopped.")
	return nil
}

// Flush waits for scheduled runtime work and for every queued broadcast to
// be handed to the transport.
func (b *Broker) Flush(ctx context.Context) error {
	select {
	case <-b.async.idle():
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.outbox.flush(ctx)
}

// pending counts scheduled callbacks. Unlike a WaitGroup it may be
// incremented while another goroutine waits for it to reach zero.
type pending struct {
	mu sync.Mutex
	n  int
	// done is closed when n drops to zero.
	done chan struct{}
}

func (p *pending) add() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.n == 0 {
		p.done = make(chan struct{})
	}
	p.n++
}

func (p *pending) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n--
	if p.n == 0 {
		close(p.done)
	}
}

// idle returns a channel closed once no callback is pending.
func (p *pending) idle() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.n == 0 {
		c := make(chan struct{})
		close(c)
		return c
	}
	return p.done
}

// Dispatch routes one inbound message. The returned error is the rejection
// reason; it has already been logged.
func (b *Broker) Dispatch(ctx context.Context, clientID, channel string, payload []byte) error {
	ctx = ctxlog.With(ctx, "client", clientID, "channel", channel)
	ctx, cancel := b.clientContext(ctx, clientID)
	defer cancel()

	h, ok := b.channels.Lookup(channel)
	if !ok {
		var err error
		if nodeID, isSettings := wire.NodeOf(channel); isSettings {
			err = zerr.With(zerr.Wrap(ErrChannelRace, "dispatch"), "node", nodeID)
		} else {
			err = zerr.With(zerr.Wrap(ErrUnknownChannel, "dispatch"), "channel", channel)
		}
		b.reject(ctx, err)
		return err
	}

	if err := h(ctx, clientID, payload); err != nil {
		b.reject(ctx, err)
		return err
	}
	return nil
}

func (b *Broker) reject(ctx context.Context, err error) {
	logger := ctxlog.FromContext(ctx)
	switch {
	case errors.Is(err, ErrChannelRace):
		logger.Debug("Dropped message for a removed node.", "error", err)
	case errors.Is(err, context.Canceled):
		logger.Info("Request cancelled.", "error", err)
	default:
		logger.Warn("Event rejected.", "error", err)
	}
}

// CurrentSession returns the id of the loaded session, or "".
func (b *Broker) CurrentSession() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Graph exposes the dataflow graph for inspection.
func (b *Broker) Graph() graph.Graph {
	return b.graph
}

// Nodes exposes the live node store for inspection.
func (b *Broker) Nodes() nodestore.Store {
	return b.nodes
}

// Channels exposes the subscription registry for inspection.
func (b *Broker) Channels() *channels.Registry {
	return b.channels
}

// Log exposes the event log for inspection.
func (b *Broker) Log() *eventlog.Log {
	return b.log
}

// persistLocked queues a store write for sessionID, falling back to the
// current session. Without either the write is skipped.
func (b *Broker) persistLocked(ctx context.Context, sessionID string, delta func(session string) persist.Delta) {
	if sessionID == "" {
		sessionID = b.session
	}
	if sessionID == "" || b.writer == nil {
		return
	}
	b.writer.Enqueue(ctx, delta(sessionID))
}
