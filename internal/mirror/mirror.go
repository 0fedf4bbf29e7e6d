// Package mirror applies broker output to a client-side copy of the graph.
// It is what a UI keeps in memory, and what tests compare to prove that
// bootstrap and replay converge on the live state.
package mirror

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	"github.com/vk/widgetgrid/internal/wire"
	"go.trai.ch/zerr"
)

var (
	// ErrDanglingEdge is returned for an edge whose endpoints are unknown.
	ErrDanglingEdge = zerr.New("edge references an unknown node")
	// ErrUnknownNode is returned for state addressed to an unknown node.
	ErrUnknownNode = zerr.New("state for an unknown node")
)

// Node is the client-side view of one node.
type Node struct {
	ID       string
	Kind     string
	X, Y     float64
	Meta     map[string]any
	Settings map[string]any
}

// State is a comparable copy of the mirror.
type State struct {
	Nodes map[string]Node
	// Edges are sorted by source, then target.
	Edges [][2]string
}

// Mirror is safe for concurrent use.
type Mirror struct {
	mu      sync.Mutex
	nodes   map[string]*Node
	edges   [][2]string
	lastAck *wire.Ack
}

// New creates an empty mirror.
func New() *Mirror {
	return &Mirror{nodes: make(map[string]*Node)}
}

// Apply applies one message received on channel. Messages on channels the
// mirror does not track are ignored.
func (m *Mirror) Apply(channel string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case channel == wire.NodesChannel:
		return m.applyNodes(payload)
	case channel == wire.EdgesChannel:
		return m.applyEdges(payload)
	case channel == wire.LoadSessionChannel:
		var ack wire.Ack
		if err := wire.Unmarshal(payload, &ack); err != nil {
			return err
		}
		m.lastAck = &ack
		return nil
	}
	if id, ok := wire.NodeOf(channel); ok {
		return m.applySettings(id, payload)
	}
	return nil
}

func (m *Mirror) applyNodes(payload []byte) error {
	obj, err := wire.DecodeObject(payload)
	if err != nil {
		return err
	}
	if obj[wire.FieldType] == wire.TypeInit {
		m.nodes = make(map[string]*Node)
		list, _ := obj["nodes"].([]any)
		for _, raw := range list {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			n := &Node{Settings: map[string]any{}}
			n.ID, _ = entry[wire.FieldID].(string)
			n.Kind, _ = entry[wire.FieldKind].(string)
			n.X, _ = entry[wire.FieldX].(float64)
			n.Y, _ = entry[wire.FieldY].(float64)
			meta := maps.Clone(entry)
			for _, k := range []string{wire.FieldID, wire.FieldKind, wire.FieldX, wire.FieldY} {
				delete(meta, k)
			}
			n.Meta = meta
			m.nodes[n.ID] = n
		}
		m.edges = slices.DeleteFunc(m.edges, func(e [2]string) bool {
			return m.nodes[e[0]] == nil || m.nodes[e[1]] == nil
		})
		return nil
	}

	ev, err := wire.Decode(payload)
	if err != nil {
		return err
	}
	switch ev.Type {
	case wire.TypeAddNode:
		if _, ok := m.nodes[ev.ID]; ok {
			return nil
		}
		settings := maps.Clone(ev.Settings)
		if settings == nil {
			settings = map[string]any{}
		}
		m.nodes[ev.ID] = &Node{ID: ev.ID, Kind: ev.Kind, X: ev.X, Y: ev.Y, Meta: ev.Meta(), Settings: settings}
	case wire.TypeRemoveNode:
		m.remove(ev.ID)
	case wire.TypeRemoveNodes:
		for _, id := range ev.IDs {
			m.remove(id)
		}
	case wire.TypeMoveNode:
		if n, ok := m.nodes[ev.ID]; ok {
			if ev.HasX {
				n.X = ev.X
			}
			if ev.HasY {
				n.Y = ev.Y
			}
		}
	}
	return nil
}

func (m *Mirror) remove(id string) {
	delete(m.nodes, id)
	m.detach(id)
}

func (m *Mirror) detach(id string) {
	m.edges = slices.DeleteFunc(m.edges, func(e [2]string) bool { return e[0] == id || e[1] == id })
}

func (m *Mirror) applyEdges(payload []byte) error {
	obj, err := wire.DecodeObject(payload)
	if err != nil {
		return err
	}
	if obj[wire.FieldType] == wire.TypeInit {
		m.edges = nil
		list, _ := obj["connections"].([]any)
		var dangling error
		for _, raw := range list {
			pair, ok := raw.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			s, _ := pair[0].(string)
			t, _ := pair[1].(string)
			if err := m.addEdge(s, t); err != nil {
				dangling = err
			}
		}
		return dangling
	}

	ev, err := wire.Decode(payload)
	if err != nil {
		return err
	}
	switch ev.Type {
	case wire.TypeAddConnection:
		return m.addEdge(ev.Source, ev.Target)
	case wire.TypeRemoveConnection:
		m.edges = slices.DeleteFunc(m.edges, func(e [2]string) bool { return e == [2]string{ev.Source, ev.Target} })
	case wire.TypeRemoveNodes:
		for _, id := range ev.IDs {
			m.detach(id)
		}
	}
	return nil
}

func (m *Mirror) addEdge(source, target string) error {
	if m.nodes[source] == nil || m.nodes[target] == nil {
		return zerr.With(zerr.With(zerr.Wrap(ErrDanglingEdge, "add edge"), "source", source), "target", target)
	}
	e := [2]string{source, target}
	if !slices.Contains(m.edges, e) {
		m.edges = append(m.edges, e)
	}
	return nil
}

func (m *Mirror) applySettings(id string, payload []byte) error {
	n, ok := m.nodes[id]
	if !ok {
		return zerr.With(zerr.Wrap(ErrUnknownNode, "apply settings"), "node", id)
	}
	delta, _, err := wire.DecodeSettings(payload)
	if err != nil {
		return err
	}
	maps.Copy(n.Settings, delta)
	return nil
}

// State returns a deep enough copy to compare with another mirror.
func (m *Mirror) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{Nodes: make(map[string]Node, len(m.nodes)), Edges: slices.Clone(m.edges)}
	for id, n := range m.nodes {
		c := *n
		c.Meta = maps.Clone(n.Meta)
		c.Settings = maps.Clone(n.Settings)
		s.Nodes[id] = c
	}
	slices.SortFunc(s.Edges, func(a, b [2]string) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return s
}

// LastAck returns the last load-session acknowledgement received.
func (m *Mirror) LastAck() (wire.Ack, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastAck == nil {
		return wire.Ack{}, false
	}
	return *m.lastAck, true
}
