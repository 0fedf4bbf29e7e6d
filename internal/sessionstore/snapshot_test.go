package sessionstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSnapshot_Algebra(t *testing.T) {
	s := NewSnapshot()
	s.UpsertNode(NodeRecord{ID: "a", Kind: "K"})
	s.UpsertNode(NodeRecord{ID: "b", Kind: "K"})
	s.UpsertNode(NodeRecord{ID: "a", Kind: "K", X: 5})
	s.AddEdge(Edge{"a", "b"})
	s.AddEdge(Edge{"a", "b"})
	s.AddEdge(Edge{"b", "b"})
	s.MergeSettings("a", map[string]any{"url": "x"})
	s.MergeSettings("a", map[string]any{"k": 1.0})
	s.MergeSettings("b", map[string]any{"y": "col"})

	want := &Snapshot{
		Nodes:    []NodeRecord{{ID: "a", Kind: "K", X: 5}, {ID: "b", Kind: "K"}},
		Edges:    []Edge{{"a", "b"}, {"b", "b"}},
		Settings: map[string]map[string]any{"a": {"url": "x", "k": 1.0}, "b": {"y": "col"}},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	s.DropNode("b")
	want = &Snapshot{
		Nodes:    []NodeRecord{{ID: "a", Kind: "K", X: 5}},
		Edges:    []Edge{},
		Settings: map[string]map[string]any{"a": {"url": "x", "k": 1.0}},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("snapshot mismatch after drop (-want +got):\n%s", diff)
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := NewSnapshot()
	s.UpsertNode(NodeRecord{ID: "a", Meta: map[string]any{"label": "x"}})
	s.MergeSettings("a", map[string]any{"k": "v"})

	c := s.Clone()
	c.Nodes[0].Meta["label"] = "changed"
	c.Settings["a"]["k"] = "changed"
	c.AddEdge(Edge{"a", "a"})

	assert.Equal(t, "x", s.Nodes[0].Meta["label"])
	assert.Equal(t, "v", s.Settings["a"]["k"])
	assert.Empty(t, s.Edges)
}

func TestSnapshot_Node(t *testing.T) {
	s := NewSnapshot()
	assert.True(t, s.Empty())
	s.UpsertNode(NodeRecord{ID: "a", Kind: "K"})
	rec, ok := s.Node("a")
	assert.True(t, ok)
	assert.Equal(t, "K", rec.Kind)
	_, ok = s.Node("b")
	assert.False(t, ok)
	assert.False(t, s.Empty())
}
