// Package graph implements the dataflow half of the engine.
//
// # Why Graph Package Exists
//
// The Graph interface is a facade that combines the edge set (topology) with
// a per-node output cache and a runtime source into last-value dataflow:
//
//   - **Topology Store** (topologystore.Store): which node feeds which, in insertion order
//   - **Output Cache**: the last value each node emitted, kept regardless of edges
//   - **Runtime Source** (nodestore.Store): how to reach a target node's runtime
//
// Caching the last output is what lets a newly connected node see current
// upstream data immediately, without replaying historical emissions. Only the
// current value matters.
//
// # Responsibilities
//
// The graph has no transport or persistence knowledge. The broker decides
// which events reach it; the graph guarantees:
//
//  1. Connect delivers the cached upstream value, if any
//  2. Disconnect delivers explicit absence
//  3. RemoveNode drops incident edges silently and purges the cache entry
//  4. Emit caches then fans out in deterministic order
package graph
