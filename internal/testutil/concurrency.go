package testutil

import (
	"slices"
	"sync"

	"github.com/vk/widgetgrid/internal/node"
)

// Recorder is a thread-safe log of runtime callbacks shared by the
// recording kinds.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(nodeID, method string, v node.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Node: nodeID, Method: method, Value: v})
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Inputs returns the values delivered to nodeID's OnInput, in order.
func (r *Recorder) Inputs(nodeID string) []node.Value {
	return r.values(nodeID, "input")
}

// Settings returns the deltas delivered to nodeID's OnSettingsChanged.
func (r *Recorder) Settings(nodeID string) []node.Value {
	return r.values(nodeID, "settings")
}

// Count returns the number of calls of method on nodeID.
func (r *Recorder) Count(nodeID, method string) int {
	return len(r.values(nodeID, method))
}

// Reset forgets every call.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) values(nodeID, method string) []node.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []node.Value
	for _, c := range r.calls {
		if c.Node == nodeID && c.Method == method {
			out = append(out, c.Value)
		}
	}
	return out
}
