// Package eventlog keeps the compacted, replayable history of accepted
// events for same-process bootstrap: a node-topology log, an edge-topology
// log and one settings log per node.
//
// Compaction keeps the logs proportional to live state. Removing an edge
// prunes the entry that added it; forgetting a node prunes its node entries,
// every entry of an incident edge and its settings log. Replaying the result
// against an empty mirror yields the current state.
package eventlog

import (
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vk/widgetgrid/internal/wire"
)

// Entry is one accepted event.
type Entry struct {
	ID      ulid.ULID
	Channel string
	Payload []byte

	node           string
	source, target string
}

// Time returns the time the entry was recorded.
func (e Entry) Time() time.Time {
	return ulid.Time(e.ID.Time())
}

// Log is safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	nodes    []Entry
	edges    []Entry
	settings map[string][]Entry
}

// New creates an empty log.
func New() *Log {
	return &Log{settings: make(map[string][]Entry)}
}

// AppendNode records an event on the node channel about nodeID.
func (l *Log) AppendNode(nodeID string, payload []byte) Entry {
	e := newEntry(wire.NodesChannel, payload)
	e.node = nodeID

	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes = append(l.nodes, e)
	return e
}

// AppendEdge records an event on the edge channel about source→target.
func (l *Log) AppendEdge(source, target string, payload []byte) Entry {
	e := newEntry(wire.EdgesChannel, payload)
	e.source, e.target = source, target

	l.mu.Lock()
	defer l.mu.Unlock()
	l.edges = append(l.edges, e)
	return e
}

// AppendSettings records a message on a node's settings channel.
func (l *Log) AppendSettings(nodeID string, payload []byte) Entry {
	e := newEntry(wire.SettingsChannel(nodeID), payload)
	e.node = nodeID

	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings[nodeID] = append(l.settings[nodeID], e)
	return e
}

// PruneEdge drops every entry about source→target.
func (l *Log) PruneEdge(source, target string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.edges = slices.DeleteFunc(l.edges, func(e Entry) bool {
		return e.source == source && e.target == target
	})
}

// PruneIncident drops every edge entry touching nodeID.
func (l *Log) PruneIncident(nodeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneIncidentLocked(nodeID)
}

// Forget drops everything recorded about nodeID.
func (l *Log) Forget(nodeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes = slices.DeleteFunc(l.nodes, func(e Entry) bool { return e.node == nodeID })
	l.pruneIncidentLocked(nodeID)
	delete(l.settings, nodeID)
}

// Reset drops every entry.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes = nil
	l.edges = nil
	l.settings = make(map[string][]Entry)
}

// Replay returns every entry in replay order: nodes, then edges, then the
// settings of each node in the order the node first appeared.
func (l *Log) Replay() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.nodes)+len(l.edges))
	out = append(out, l.nodes...)
	out = append(out, l.edges...)

	seen := make(map[string]bool, len(l.settings))
	for _, e := range l.nodes {
		if seen[e.node] {
			continue
		}
		seen[e.node] = true
		out = append(out, l.settings[e.node]...)
	}
	return out
}

// Len returns the number of entries held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.nodes) + len(l.edges)
	for _, s := range l.settings {
		n += len(s)
	}
	return n
}

func (l *Log) pruneIncidentLocked(nodeID string) {
	l.edges = slices.DeleteFunc(l.edges, func(e Entry) bool {
		return e.source == nodeID || e.target == nodeID
	})
}

func newEntry(channel string, payload []byte) Entry {
	return Entry{ID: ulid.Make(), Channel: channel, Payload: slices.Clone(payload)}
}
