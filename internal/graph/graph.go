package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/topologystore"
	"go.trai.ch/zerr"
)

// DefaultMaxCascadeDepth bounds propagation when no limit is configured.
const DefaultMaxCascadeDepth = 64

// ErrDanglingReference is returned when an edge would reference a node that
// is not live.
var ErrDanglingReference = zerr.New("dangling reference")

// delivery is one pending OnInput call.
type delivery struct {
	target string
	data   node.Value
	depth  int
}

// Manager provides a thread-safe implementation of Graph by composing a
// topology store, an output cache and a runtime source.
type Manager struct {
	topo     topologystore.Store
	runtimes RuntimeSource
	maxDepth int

	mu       sync.Mutex
	cache    map[string]node.Value
	queue    []delivery
	draining bool
	// depth is the depth of the delivery currently being handled, 0 when idle.
	depth int
}

var _ Graph = (*Manager)(nil)

// New creates a new graph manager. A maxDepth of zero or less selects
// DefaultMaxCascadeDepth.
func New(ts topologystore.Store, rs RuntimeSource, maxDepth int) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCascadeDepth
	}
	return &Manager{
		topo:     ts,
		runtimes: rs,
		maxDepth: maxDepth,
		cache:    make(map[string]node.Value),
	}
}

// Connect adds an edge and delivers the cached upstream output.
func (m *Manager) Connect(ctx context.Context, source, target string) (bool, error) {
	for _, id := range []string{source, target} {
		if _, ok := m.runtimes.Runtime(id); !ok {
			return false, zerr.With(zerr.With(zerr.Wrap(ErrDanglingReference, "connect"), "source", source), "target", target)
		}
	}

	e := topologystore.Edge{Source: source, Target: target}
	if !m.topo.AddEdge(ctx, e) {
		ctxlog.FromContext(ctx).Debug("Edge already present.", "source", source, "target", target)
		return false, nil
	}

	m.mu.Lock()
	if v, ok := m.cache[source]; ok {
		m.enqueueLocked(ctx, target, v, m.depth+1)
	}
	m.mu.Unlock()

	m.drain(ctx)
	return true, nil
}

// Disconnect removes an edge and delivers absence to the target.
func (m *Manager) Disconnect(ctx context.Context, source, target string) bool {
	removed := m.topo.RemoveEdge(ctx, topologystore.Edge{Source: source, Target: target})

	if _, ok := m.runtimes.Runtime(target); ok {
		m.mu.Lock()
		m.enqueueLocked(ctx, target, nil, m.depth+1)
		m.mu.Unlock()
		m.drain(ctx)
	}
	return removed
}

// RemoveNode drops incident edges and the cached output of id.
func (m *Manager) RemoveNode(ctx context.Context, id string) []topologystore.Edge {
	removed := m.topo.RemoveIncident(ctx, id)

	m.mu.Lock()
	delete(m.cache, id)
	m.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Node detached from graph.", "node", id, "edges_removed", len(removed))
	return removed
}

// Detach drops incident edges of id.
func (m *Manager) Detach(ctx context.Context, id string) []topologystore.Edge {
	return m.topo.RemoveIncident(ctx, id)
}

// Emit caches data and fans it out.
func (m *Manager) Emit(ctx context.Context, source string, data node.Value) {
	targets := m.topo.TargetsOf(ctx, source)

	m.mu.Lock()
	m.cache[source] = data
	depth := m.depth + 1
	for _, t := range targets {
		m.enqueueLocked(ctx, t, data, depth)
	}
	m.mu.Unlock()

	m.drain(ctx)
}

// Output returns the cached output of id.
func (m *Manager) Output(id string) (node.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache[id]
	return v, ok
}

// Edges returns every edge in insertion order.
func (m *Manager) Edges(ctx context.Context) []topologystore.Edge {
	return m.topo.AllEdges(ctx)
}

// HasEdge reports whether the edge exists.
func (m *Manager) HasEdge(ctx context.Context, source, target string) bool {
	return m.topo.HasEdge(ctx, topologystore.Edge{Source: source, Target: target})
}

// Reset drops all graph state.
func (m *Manager) Reset(ctx context.Context) {
	m.topo.Reset(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]node.Value)
	m.queue = nil
}

// enqueueLocked appends a delivery unless it exceeds the cascade bound.
// m.mu must be held.
func (m *Manager) enqueueLocked(ctx context.Context, target string, data node.Value, depth int) {
	if depth > m.maxDepth {
		ctxlog.FromContext(ctx).Warn("Cascade depth exceeded, dropping delivery.", "target", target, "depth", depth, "max_depth", m.maxDepth)
		return
	}
	m.queue = append(m.queue, delivery{target: target, data: data, depth: depth})
}

// drain processes the worklist to completion unless a drain is already in
// progress further up the call stack.
func (m *Manager) drain(ctx context.Context) {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true

	for len(m.queue) > 0 {
		d := m.queue[0]
		m.queue = m.queue[1:]
		m.depth = d.depth
		m.mu.Unlock()

		m.deliver(ctx, d)

		m.mu.Lock()
	}

	m.draining = false
	m.depth = 0
	m.mu.Unlock()
}

// deliver invokes the target runtime. A panicking runtime is logged and
// does not abort the rest of the cascade.
func (m *Manager) deliver(ctx context.Context, d delivery) {
	rt, ok := m.runtimes.Runtime(d.target)
	if !ok {
		ctxlog.FromContext(ctx).Debug("Delivery target gone, skipping.", "target", d.target)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Node runtime panicked on input.", "target", d.target, "panic", fmt.Sprint(r))
		}
	}()
	rt.OnInput(ctx, d.data)
}
