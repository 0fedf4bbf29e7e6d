package inmemorytopology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/topologystore"
)

func edge(s, t string) topologystore.Edge {
	return topologystore.Edge{Source: s, Target: t}
}

func TestAddAndRemoveEdge(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.True(t, s.AddEdge(ctx, edge("a", "b")))
	assert.False(t, s.AddEdge(ctx, edge("a", "b")), "duplicate edge must be a no-op")
	assert.True(t, s.HasEdge(ctx, edge("a", "b")))
	assert.False(t, s.HasEdge(ctx, edge("b", "a")))

	assert.True(t, s.RemoveEdge(ctx, edge("a", "b")))
	assert.False(t, s.RemoveEdge(ctx, edge("a", "b")))
	assert.Empty(t, s.AllEdges(ctx))
}

func TestTargetsOf_InsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.AddEdge(ctx, edge("a", "c"))
	s.AddEdge(ctx, edge("x", "y"))
	s.AddEdge(ctx, edge("a", "b"))
	s.AddEdge(ctx, edge("a", "a"))
	s.AddEdge(ctx, edge("a", "c"))

	assert.Equal(t, []string{"c", "b", "a"}, s.TargetsOf(ctx, "a"))
	assert.Nil(t, s.TargetsOf(ctx, "nobody"))
}

func TestRemoveIncident(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.AddEdge(ctx, edge("a", "b"))
	s.AddEdge(ctx, edge("c", "a"))
	s.AddEdge(ctx, edge("b", "c"))
	s.AddEdge(ctx, edge("a", "a"))

	removed := s.RemoveIncident(ctx, "a")
	assert.Equal(t, []topologystore.Edge{edge("a", "b"), edge("c", "a"), edge("a", "a")}, removed)
	assert.Equal(t, []topologystore.Edge{edge("b", "c")}, s.AllEdges(ctx))
	assert.False(t, s.HasEdge(ctx, edge("a", "b")))

	// The removed edge can be added again.
	assert.True(t, s.AddEdge(ctx, edge("a", "b")))
}

func TestReset(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.AddEdge(ctx, edge("a", "b"))
	s.Reset(ctx)
	assert.Empty(t, s.AllEdges(ctx))
	assert.True(t, s.AddEdge(ctx, edge("a", "b")))
}
