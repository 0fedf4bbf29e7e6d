package graph

import (
	"context"

	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/topologystore"
)

// RuntimeSource resolves the runtime of a live node. It is implemented by
// nodestore.Store; the graph never creates or destroys nodes itself.
type RuntimeSource interface {
	Runtime(id string) (node.Runtime, bool)
}

// Graph is the dataflow interface of the engine: edges plus last-value
// output caching and propagation.
//
// # Delivery Model
//
// All deliveries to Runtime.OnInput go through one FIFO worklist owned by the
// graph. A runtime that emits while handling an input only enqueues; the
// outermost call drains the worklist to completion before returning. This
// keeps stack depth constant and makes cascade termination analyzable.
//
// Each delivery carries a depth. Deliveries triggered directly by Connect,
// Disconnect or a top-level Emit have depth 1; an emission made while
// handling a depth-d delivery produces depth d+1 deliveries. Deliveries past
// the configured maximum are dropped and logged. Cycle detection is not
// performed: a cyclic graph whose runtimes keep re-emitting is cut off by
// this bound.
//
// # Thread-Safety
//
// Implementations MUST be thread-safe. The broker additionally serializes
// every call under its global lock, which is what gives the "connect
// delivers before any other event" guarantee.
type Graph interface {
	// Connect adds the edge source→target. If source has a cached output,
	// it is delivered to target before Connect returns. Connecting an
	// existing edge is a no-op and reports false.
	//
	// Fails with ErrDanglingReference if either endpoint is not live.
	Connect(ctx context.Context, source, target string) (bool, error)

	// Disconnect removes the edge source→target and delivers an explicit
	// nil input to target if target is live, whether or not the edge
	// existed. It reports whether an edge was removed.
	Disconnect(ctx context.Context, source, target string) bool

	// RemoveNode silently drops every edge incident to id and purges its
	// cached output. Neighbours are not notified. It returns the dropped
	// edges.
	RemoveNode(ctx context.Context, id string) []topologystore.Edge

	// Detach silently drops every edge incident to id but keeps its cached
	// output. It returns the dropped edges.
	Detach(ctx context.Context, id string) []topologystore.Edge

	// Emit stores data as source's cached output, replacing any previous
	// value (including with nil), then delivers it to every target of
	// source in edge insertion order.
	Emit(ctx context.Context, source string, data node.Value)

	// Output returns the cached output of id. The boolean distinguishes a
	// cached nil from no cached value at all.
	Output(id string) (node.Value, bool)

	// Edges returns every edge in insertion order.
	Edges(ctx context.Context) []topologystore.Edge

	// HasEdge reports whether the edge exists.
	HasEdge(ctx context.Context, source, target string) bool

	// Reset drops every edge, cached output and pending delivery.
	Reset(ctx context.Context)
}
