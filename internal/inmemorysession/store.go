// Package inmemorysession provides a thread-safe, in-memory implementation
// of the sessionstore.Store interface. It does not survive a restart and is
// meant for development, tests and single-run deployments.
package inmemorysession

import (
	"context"
	"sync"

	"github.com/vk/widgetgrid/internal/sessionstore"
)

// Store keeps one snapshot per session behind a mutex. Snapshots are copied
// on the way in and out so callers can never alias stored state.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionstore.Snapshot
}

var _ sessionstore.Store = (*Store)(nil)

// New creates a new, empty in-memory session store.
func New() *Store {
	return &Store{sessions: make(map[string]*sessionstore.Snapshot)}
}

// Get returns a copy of the session snapshot.
func (s *Store) Get(ctx context.Context, sessionID string) (*sessionstore.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	return snap.Clone(), true, nil
}

// Create stores an empty snapshot if sessionID is absent.
func (s *Store) Create(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		return false, nil
	}
	s.sessions[sessionID] = sessionstore.NewSnapshot()
	return true, nil
}

// Put replaces the session snapshot.
func (s *Store) Put(ctx context.Context, sessionID string, snap *sessionstore.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = snap.Clone()
	return nil
}

// AppendNode upserts a node record.
func (s *Store) AppendNode(ctx context.Context, sessionID string, rec sessionstore.NodeRecord) error {
	s.update(sessionID, func(snap *sessionstore.Snapshot) { snap.UpsertNode(rec) })
	return nil
}

// RemoveNode deletes a node with its edges and settings.
func (s *Store) RemoveNode(ctx context.Context, sessionID, nodeID string) error {
	s.update(sessionID, func(snap *sessionstore.Snapshot) { snap.DropNode(nodeID) })
	return nil
}

// AppendEdge inserts an edge.
func (s *Store) AppendEdge(ctx context.Context, sessionID string, e sessionstore.Edge) error {
	s.update(sessionID, func(snap *sessionstore.Snapshot) { snap.AddEdge(e) })
	return nil
}

// RemoveEdge deletes an edge.
func (s *Store) RemoveEdge(ctx context.Context, sessionID string, e sessionstore.Edge) error {
	s.update(sessionID, func(snap *sessionstore.Snapshot) { snap.DropEdge(e) })
	return nil
}

// UpdateSettings merges a settings delta.
func (s *Store) UpdateSettings(ctx context.Context, sessionID, nodeID string, delta map[string]any) error {
	s.update(sessionID, func(snap *sessionstore.Snapshot) { snap.MergeSettings(nodeID, delta) })
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) update(sessionID string, fn func(*sessionstore.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.sessions[sessionID]
	if !ok {
		snap = sessionstore.NewSnapshot()
		s.sessions[sessionID] = snap
	}
	fn(snap)
}
