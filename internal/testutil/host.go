package testutil

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/vk/widgetgrid/internal/node"
)

// Host is a node.Host that records what a runtime publishes. Submitted work
// is queued until Drain, so tests decide when it runs.
type Host struct {
	NodeID string

	mu       sync.Mutex
	settings map[string]any
	emits    []node.Value
	notifies []map[string]any
	state    map[string]any
	pending  []func(ctx context.Context)
}

var _ node.Host = (*Host)(nil)

// NewHost creates a host for nodeID.
func NewHost(nodeID string) *Host {
	return &Host{NodeID: nodeID, settings: map[string]any{}, state: map[string]any{}}
}

func (h *Host) ID() string { return h.NodeID }

// Settings returns a copy of the settings set with SetSettings.
func (h *Host) Settings() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.settings)
}

// SetSettings merges delta into the settings the runtime sees.
func (h *Host) SetSettings(delta map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	maps.Copy(h.settings, delta)
}

func (h *Host) Emit(ctx context.Context, data node.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emits = append(h.emits, data)
}

func (h *Host) Notify(ctx context.Context, state map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifies = append(h.notifies, maps.Clone(state))
	maps.Copy(h.state, state)
}

func (h *Host) Submit(fn func(ctx context.Context)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, fn)
}

// Pending returns the number of queued submissions.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Drain runs queued submissions in order on the calling goroutine.
func (h *Host) Drain(ctx context.Context) int {
	h.mu.Lock()
	fns := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
	return len(fns)
}

// Emits returns every emitted value in order.
func (h *Host) Emits() []node.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.emits)
}

// Notifies returns every published state delta in order.
func (h *Host) Notifies() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.notifies)
}

// State returns the merge of every published state delta.
func (h *Host) State() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.state)
}

// Message returns the current user-facing message, or nil.
func (h *Host) Message() map[string]any {
	m, _ := h.State()[node.MessageKey].(map[string]any)
	return m
}
