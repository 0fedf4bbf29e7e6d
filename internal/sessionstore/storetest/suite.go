// Package storetest holds the behaviour suite every sessionstore.Store
// backend must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/sessionstore"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) sessionstore.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("get missing session", func(t *testing.T) {
		s := newStore(t)
		snap, ok, err := s.Get(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, snap)
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "s1", sessionstore.NewSnapshot()))

		snap, ok, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, snap.Empty())
	})

	t.Run("create only when absent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Create(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, created)

		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "n1", Kind: "Info"}))
		created, err = s.Create(ctx, "s1")
		require.NoError(t, err)
		assert.False(t, created)

		snap, ok, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []sessionstore.NodeRecord{{ID: "n1", Kind: "Info"}}, snap.Nodes)
	})

	t.Run("deltas build a snapshot", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "n1", Kind: "Data Set", X: 1, Y: 2}))
		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "n2", Kind: "Info"}))
		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "n1", Kind: "Data Set", X: 10, Y: 20}))
		require.NoError(t, s.AppendEdge(ctx, "s1", sessionstore.Edge{Source: "n1", Target: "n2"}))
		require.NoError(t, s.AppendEdge(ctx, "s1", sessionstore.Edge{Source: "n1", Target: "n2"}))
		require.NoError(t, s.UpdateSettings(ctx, "s1", "n1", map[string]any{"url": "a.csv"}))
		require.NoError(t, s.UpdateSettings(ctx, "s1", "n1", map[string]any{"url": "b.csv", "sep": ","}))

		snap, ok, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.True(t, ok)

		want := &sessionstore.Snapshot{
			Nodes: []sessionstore.NodeRecord{
				{ID: "n1", Kind: "Data Set", X: 10, Y: 20},
				{ID: "n2", Kind: "Info"},
			},
			Edges:    []sessionstore.Edge{{Source: "n1", Target: "n2"}},
			Settings: map[string]map[string]any{"n1": {"url": "b.csv", "sep": ","}},
		}
		if diff := cmp.Diff(want, snap); diff != "" {
			t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("remove node cascades", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "a", Kind: "K"}))
		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "b", Kind: "K"}))
		require.NoError(t, s.AppendEdge(ctx, "s1", sessionstore.Edge{Source: "a", Target: "b"}))
		require.NoError(t, s.UpdateSettings(ctx, "s1", "a", map[string]any{"k": "v"}))

		require.NoError(t, s.RemoveNode(ctx, "s1", "a"))
		require.NoError(t, s.RemoveNode(ctx, "s1", "a"))

		snap, _, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []sessionstore.NodeRecord{{ID: "b", Kind: "K"}}, snap.Nodes)
		assert.Empty(t, snap.Edges)
		assert.NotContains(t, snap.Settings, "a")
	})

	t.Run("remove edge", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		e := sessionstore.Edge{Source: "a", Target: "b"}

		require.NoError(t, s.AppendEdge(ctx, "s1", e))
		require.NoError(t, s.RemoveEdge(ctx, "s1", e))
		require.NoError(t, s.RemoveEdge(ctx, "s1", e))

		snap, ok, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, snap.Edges)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "a", Kind: "K"}))
		require.NoError(t, s.AppendNode(ctx, "s2", sessionstore.NodeRecord{ID: "b", Kind: "K"}))

		snap, _, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, snap.Nodes, 1)
		assert.Equal(t, "a", snap.Nodes[0].ID)
	})

	t.Run("returned snapshots are copies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: "a", Kind: "K"}))

		snap, _, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		snap.Nodes[0].Kind = "mutated"

		again, _, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "K", again.Nodes[0].Kind)
	})

	t.Run("concurrent deltas are not lost", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		const n = 20

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("n%d", i)
				if err := s.AppendNode(ctx, "s1", sessionstore.NodeRecord{ID: id, Kind: "K"}); err != nil {
					t.Errorf("append %s: %v", id, err)
				}
			}(i)
		}
		wg.Wait()

		snap, _, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, snap.Nodes, n)
	})
}
