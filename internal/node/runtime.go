package node

import "context"

// Value is an opaque dataflow value. A nil Value means "no data" and is
// delivered explicitly, for example when an edge is removed.
type Value = any

// Runtime is the behaviour contract every node kind implements.
//
// The engine serializes all calls into a runtime; implementations never need
// their own locking for state touched only from these callbacks.
type Runtime interface {
	// OnSettingsChanged receives a client-driven settings delta. It may be
	// called repeatedly with the same delta and must tolerate that.
	OnSettingsChanged(ctx context.Context, delta map[string]any)

	// OnInput receives the latest value of an upstream node, or nil when
	// the upstream link was removed or carries no data.
	OnInput(ctx context.Context, data Value)
}

// Starter is implemented by runtimes that need to publish initial state
// right after creation.
type Starter interface {
	Start(ctx context.Context)
}

// Closer is implemented by runtimes holding resources that must be released
// when the node is removed.
type Closer interface {
	Close()
}

// Host is the engine side of a node: the only way a runtime talks back.
type Host interface {
	// ID returns the identifier of the node this host serves.
	ID() string

	// Settings returns the node's current client settings.
	Settings() map[string]any

	// Emit caches data as the node's output and delivers it to every
	// downstream node.
	Emit(ctx context.Context, data Value)

	// Notify publishes UI state on the node's settings channel. It never
	// propagates along edges.
	Notify(ctx context.Context, state map[string]any)

	// Submit schedules fn to run later under the engine lock. It is the way
	// to report results of asynchronous work. fn is dropped if the node has
	// been removed in the meantime.
	Submit(fn func(ctx context.Context))
}

// Constructor creates the runtime for a new node bound to host.
type Constructor func(host Host) (Runtime, error)
