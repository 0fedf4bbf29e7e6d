// Package inmemorytopology provides a simple, thread-safe, in-memory
// implementation of the topologystore.Store interface.
package inmemorytopology

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/widgetgrid/internal/topologystore"
)

// Store implements the topologystore.Store interface using a slice for
// insertion order, a set for membership and a mutex for thread-safe access.
type Store struct {
	mu    sync.RWMutex
	edges []topologystore.Edge
	set   map[topologystore.Edge]struct{}
}

var _ topologystore.Store = (*Store)(nil)

// New creates a new, empty in-memory topology store.
func New() *Store {
	return &Store{
		set: make(map[topologystore.Edge]struct{}),
	}
}

// AddEdge inserts an edge if it is not already present.
func (s *Store) AddEdge(ctx context.Context, e topologystore.Edge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[e]; exists {
		// Adding the same edge twice is not an error, it's idempotent.
		return false
	}
	s.set[e] = struct{}{}
	s.edges = append(s.edges, e)
	return true
}

// RemoveEdge deletes an edge.
func (s *Store) RemoveEdge(ctx context.Context, e topologystore.Edge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[e]; !exists {
		return false
	}
	delete(s.set, e)
	s.edges = slices.DeleteFunc(s.edges, func(x topologystore.Edge) bool { return x == e })
	return true
}

// HasEdge reports whether the edge exists.
func (s *Store) HasEdge(ctx context.Context, e topologystore.Edge) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[e]
	return ok
}

// TargetsOf returns the targets of source in insertion order.
func (s *Store) TargetsOf(ctx context.Context, source string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []string
	for _, e := range s.edges {
		if e.Source == source {
			targets = append(targets, e.Target)
		}
	}
	return targets
}

// RemoveIncident deletes every edge touching id.
func (s *Store) RemoveIncident(ctx context.Context, id string) []topologystore.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []topologystore.Edge
	kept := s.edges[:0]
	for _, e := range s.edges {
		if e.Source == id || e.Target == id {
			removed = append(removed, e)
			delete(s.set, e)
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
	return removed
}

// AllEdges returns a snapshot of every edge.
func (s *Store) AllEdges(ctx context.Context) []topologystore.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

// Reset removes every edge.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = nil
	s.set = make(map[topologystore.Edge]struct{})
}
