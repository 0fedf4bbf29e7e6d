// Package channels is the subscription registry that maps channel names to
// their handlers. Static channels are opened once at startup; each node's
// settings channel is opened when the node is created and closed when it is
// removed.
package channels

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"go.trai.ch/zerr"
)

// ErrAlreadyOpen is returned when opening a channel name twice.
var ErrAlreadyOpen = zerr.New("channel already open")

// Handler processes one inbound payload from a client.
type Handler func(ctx context.Context, clientID string, payload []byte) error

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Open registers a handler under name.
func (r *Registry) Open(ctx context.Context, name string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return zerr.With(zerr.Wrap(ErrAlreadyOpen, "open channel"), "channel", name)
	}
	r.handlers[name] = h
	ctxlog.FromContext(ctx).Debug("Opened channel.", "channel", name)
	return nil
}

// Close unregisters name. Closing an unknown name reports false.
func (r *Registry) Close(ctx context.Context, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; !ok {
		return false
	}
	delete(r.handlers, name)
	ctxlog.FromContext(ctx).Debug("Closed channel.", "channel", name)
	return true
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// IsOpen reports whether name has a handler.
func (r *Registry) IsOpen(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns every open channel name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
