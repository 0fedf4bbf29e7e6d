package sessionstore

import (
	"maps"
	"slices"
)

// NodeRecord is the durable form of a node.
type NodeRecord struct {
	ID   string         `json:"id"`
	Kind string         `json:"kind"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Edge is the durable form of a connection.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Snapshot is the durable record of one session.
type Snapshot struct {
	Nodes    []NodeRecord              `json:"nodes"`
	Edges    []Edge                    `json:"edges"`
	Settings map[string]map[string]any `json:"settings"`
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Nodes:    []NodeRecord{},
		Edges:    []Edge{},
		Settings: map[string]map[string]any{},
	}
}

// Clone returns a copy that shares no slices or maps with s.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	for _, n := range s.Nodes {
		n.Meta = maps.Clone(n.Meta)
		c.Nodes = append(c.Nodes, n)
	}
	c.Edges = append(c.Edges, s.Edges...)
	for id, settings := range s.Settings {
		c.Settings[id] = maps.Clone(settings)
	}
	return c
}

// Empty reports whether the snapshot holds no nodes.
func (s *Snapshot) Empty() bool {
	return len(s.Nodes) == 0
}

// Node returns the record for id.
func (s *Snapshot) Node(id string) (NodeRecord, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeRecord{}, false
}

// UpsertNode inserts rec or replaces the record with the same id in place.
func (s *Snapshot) UpsertNode(rec NodeRecord) {
	for i, n := range s.Nodes {
		if n.ID == rec.ID {
			s.Nodes[i] = rec
			return
		}
	}
	s.Nodes = append(s.Nodes, rec)
}

// DropNode deletes a node, its incident edges and its settings.
func (s *Snapshot) DropNode(id string) {
	s.Nodes = slices.DeleteFunc(s.Nodes, func(n NodeRecord) bool { return n.ID == id })
	s.Edges = slices.DeleteFunc(s.Edges, func(e Edge) bool { return e.Source == id || e.Target == id })
	delete(s.Settings, id)
}

// AddEdge inserts e unless present.
func (s *Snapshot) AddEdge(e Edge) {
	if slices.Contains(s.Edges, e) {
		return
	}
	s.Edges = append(s.Edges, e)
}

// DropEdge deletes e.
func (s *Snapshot) DropEdge(e Edge) {
	s.Edges = slices.DeleteFunc(s.Edges, func(x Edge) bool { return x == e })
}

// MergeSettings merges delta into the settings of id.
func (s *Snapshot) MergeSettings(id string, delta map[string]any) {
	if s.Settings == nil {
		s.Settings = map[string]map[string]any{}
	}
	cur, ok := s.Settings[id]
	if !ok {
		cur = make(map[string]any, len(delta))
		s.Settings[id] = cur
	}
	maps.Copy(cur, delta)
}
