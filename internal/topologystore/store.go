// Package topologystore defines the interface for storing the directed edge
// set of the dataflow graph.
//
// # Why Topology Store Exists
//
// The topology store isolates **graph structure** (which node feeds which)
// from **node lifecycle** (nodestore) and from **propagation** (graph). The
// graph package composes it with an output cache and a runtime source to
// implement last-value dataflow.
//
// # Ordering
//
// Edges are kept in insertion order. Propagation fans out in that order, so
// a given edge set always produces the same delivery sequence. Re-adding an
// existing edge does not move it.
package topologystore

import "context"

// Edge is a directed connection from Source to Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Store is the interface for managing the edge set of the dataflow graph.
//
// # Thread-Safety Requirements
//
// Implementations MUST be thread-safe for concurrent reads and writes.
type Store interface {
	// AddEdge inserts an edge. It reports false if the edge already existed,
	// in which case nothing changes.
	AddEdge(ctx context.Context, e Edge) bool

	// RemoveEdge deletes an edge. It reports false if the edge did not exist.
	RemoveEdge(ctx context.Context, e Edge) bool

	// HasEdge reports whether the edge exists.
	HasEdge(ctx context.Context, e Edge) bool

	// TargetsOf returns the targets fed by source, in edge insertion order.
	TargetsOf(ctx context.Context, source string) []string

	// RemoveIncident deletes every edge with id as source or target and
	// returns the removed edges in insertion order.
	RemoveIncident(ctx context.Context, id string) []Edge

	// AllEdges returns a snapshot of every edge in insertion order.
	AllEdges(ctx context.Context) []Edge

	// Reset removes every edge.
	Reset(ctx context.Context)
}
