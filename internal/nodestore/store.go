// Package nodestore defines the interface for the Node Registry: the set of
// live node instances keyed by identifier.
//
// # Why Node Store Exists
//
// The node store isolates **node lifecycle** (create, look up, remove) from
// **dataflow** (edges, cached outputs) managed by the graph package and its
// topologystore. The graph only needs to find the runtime of a target node;
// it never creates or destroys nodes.
//
// # Lifecycle and Usage
//
// Create builds the runtime through the kind registry and records the node.
// Get and All are used by the broker to apply events and to bootstrap
// clients. Runtime is used by the graph to deliver inputs. Remove is
// idempotent and runs the registered removal hooks.
//
// Removal hooks release per-node resources owned outside the graph, such as
// the settings channel subscription and the event log entries. Edges and
// the cached output belong to the graph, which the caller detaches before
// removing the node.
package nodestore

import (
	"context"

	"github.com/vk/widgetgrid/internal/node"
	"go.trai.ch/zerr"
)

var (
	// ErrNotFound is returned when a node id is not registered.
	ErrNotFound = zerr.New("node not found")
	// ErrAlreadyExists is returned when creating a node with a live id.
	ErrAlreadyExists = zerr.New("node already exists")
)

// Handle couples a live node with its runtime.
type Handle struct {
	Node    *node.Node
	Runtime node.Runtime
}

// RemoveHook is called after a node has been removed from the store.
type RemoveHook func(ctx context.Context, id string)

// Store is the interface for managing live node instances.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. The broker serializes
// event application, but the graph and the transport may read concurrently.
type Store interface {
	// Create constructs the runtime for spec.Kind bound to host and
	// registers the node.
	//
	// Fails with registry.ErrUnknownKind for unregistered kinds and with
	// ErrAlreadyExists if the id is live. Nothing is registered on failure.
	Create(ctx context.Context, spec node.Spec, host node.Host) (*Handle, error)

	// Get returns the handle for id or fails with ErrNotFound.
	Get(ctx context.Context, id string) (*Handle, error)

	// Has reports whether id is live.
	Has(ctx context.Context, id string) bool

	// All returns every live handle in creation order.
	All(ctx context.Context) []*Handle

	// Runtime returns the runtime for id.
	Runtime(id string) (node.Runtime, bool)

	// Remove deletes the node, closes its runtime and runs the removal
	// hooks. Removing an absent id is a no-op and reports false.
	Remove(ctx context.Context, id string) bool

	// Reset removes every node, in reverse creation order.
	Reset(ctx context.Context)

	// OnRemove registers a hook run after every removal.
	OnRemove(hook RemoveHook)
}
