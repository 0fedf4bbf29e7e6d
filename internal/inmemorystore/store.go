package inmemorystore

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/nodestore"
	"github.com/vk/widgetgrid/internal/registry"
	"go.trai.ch/zerr"
)

// Store is an in-memory implementation of nodestore.Store.
//
// The store keeps a map for O(1) lookups and a slice for creation order,
// both guarded by one RWMutex. Runtime construction happens outside the lock
// so a slow constructor never blocks readers.
type Store struct {
	kinds *registry.Registry

	mu      sync.RWMutex
	handles map[string]*nodestore.Handle
	order   []string
	hooks   []nodestore.RemoveHook
}

var _ nodestore.Store = (*Store)(nil)

// New creates a new, empty in-memory node store that constructs runtimes
// through kinds.
func New(kinds *registry.Registry) *Store {
	return &Store{
		kinds:   kinds,
		handles: make(map[string]*nodestore.Handle),
	}
}

// Create constructs and registers a node.
func (s *Store) Create(ctx context.Context, spec node.Spec, host node.Host) (*nodestore.Handle, error) {
	if s.Has(ctx, spec.ID) {
		return nil, zerr.With(zerr.Wrap(nodestore.ErrAlreadyExists, "create node"), "node", spec.ID)
	}

	rt, err := s.kinds.Construct(spec.Kind, host)
	if err != nil {
		return nil, zerr.With(err, "node", spec.ID)
	}

	h := &nodestore.Handle{Node: node.New(spec), Runtime: rt}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handles[spec.ID]; exists {
		closeRuntime(rt)
		return nil, zerr.With(zerr.Wrap(nodestore.ErrAlreadyExists, "create node"), "node", spec.ID)
	}
	s.handles[spec.ID] = h
	s.order = append(s.order, spec.ID)

	ctxlog.FromContext(ctx).Debug("Node created.", "node", spec.ID, "kind", spec.Kind)
	return h, nil
}

// Get retrieves a handle by id.
func (s *Store) Get(ctx context.Context, id string) (*nodestore.Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles[id]
	if !ok {
		return nil, zerr.With(zerr.Wrap(nodestore.ErrNotFound, "get node"), "node", id)
	}
	return h, nil
}

// Has reports whether id is live.
func (s *Store) Has(ctx context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.handles[id]
	return ok
}

// All returns a snapshot of every handle in creation order.
func (s *Store) All(ctx context.Context) []*nodestore.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*nodestore.Handle, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.handles[id])
	}
	return out
}

// Runtime returns the runtime for id.
func (s *Store) Runtime(id string) (node.Runtime, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[id]
	if !ok {
		return nil, false
	}
	return h.Runtime, true
}

// Remove deletes a node and runs the removal hooks.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	h, ok := s.handles[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.handles, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	closeRuntime(h.Runtime)
	for _, hook := range hooks {
		hook(ctx, id)
	}
	ctxlog.FromContext(ctx).Debug("Node removed.", "node", id)
	return true
}

// Reset removes every node, newest first.
func (s *Store) Reset(ctx context.Context) {
	s.mu.RLock()
	ids := slices.Clone(s.order)
	s.mu.RUnlock()

	slices.Reverse(ids)
	for _, id := range ids {
		s.Remove(ctx, id)
	}
}

// OnRemove registers a removal hook.
func (s *Store) OnRemove(hook nodestore.RemoveHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func closeRuntime(rt node.Runtime) {
	if c, ok := rt.(node.Closer); ok {
		c.Close()
	}
}
