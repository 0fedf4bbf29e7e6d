// Package sessionstore defines the durable Session Store contract: a
// snapshot of graph topology and per-node settings keyed by session id.
//
// The store holds no business logic. Incremental deltas mirror the events
// the broker accepts; the snapshot algebra in this package is shared by every
// backend so they all agree on upsert, cascade and merge semantics.
package sessionstore

import "context"

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// Store is the interface every session store backend implements.
//
// Deltas against a session that does not exist yet create it. All methods
// must be safe for concurrent use.
type Store interface {
	// Get returns the snapshot of a session. The boolean is false when the
	// session does not exist.
	Get(ctx context.Context, sessionID string) (*Snapshot, bool, error)

	// Create stores an empty snapshot unless the session already exists.
	// The boolean reports whether a snapshot was created.
	Create(ctx context.Context, sessionID string) (bool, error)

	// Put replaces the whole snapshot of a session.
	Put(ctx context.Context, sessionID string, snap *Snapshot) error

	// AppendNode inserts a node record, or replaces the record with the
	// same id in place.
	AppendNode(ctx context.Context, sessionID string, rec NodeRecord) error

	// RemoveNode deletes a node together with its incident edges and its
	// settings.
	RemoveNode(ctx context.Context, sessionID, nodeID string) error

	// AppendEdge inserts an edge unless it is already present.
	AppendEdge(ctx context.Context, sessionID string, e Edge) error

	// RemoveEdge deletes an edge.
	RemoveEdge(ctx context.Context, sessionID string, e Edge) error

	// UpdateSettings merges a settings delta into a node's stored settings.
	UpdateSettings(ctx context.Context, sessionID, nodeID string, delta map[string]any) error

	// Close releases backend resources.
	Close() error
}
