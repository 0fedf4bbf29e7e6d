package mirror

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/wire"
)

func apply(t *testing.T, m *Mirror, channel, payload string) {
	t.Helper()
	require.NoError(t, m.Apply(channel, []byte(payload)))
}

func TestMirror_LiveEvents(t *testing.T) {
	m := New()
	apply(t, m, wire.NodesChannel, `{"type":"addWidget","widgetId":"a","widgetType":"K","x":1,"y":2,"title":"A","sessionId":"s"}`)
	apply(t, m, wire.NodesChannel, `{"type":"addNode","id":"b","kind":"K","settings":{"url":"x"}}`)
	apply(t, m, wire.EdgesChannel, `{"type":"addConnection","sourceId":"a","targetId":"b"}`)
	apply(t, m, "widget-settings-a", `{"k":1,"sessionId":"s"}`)
	apply(t, m, wire.NodesChannel, `{"type":"moveWidget","widgetId":"a","x":5,"y":6}`)

	want := State{
		Nodes: map[string]Node{
			"a": {ID: "a", Kind: "K", X: 5, Y: 6, Meta: map[string]any{"title": "A"}, Settings: map[string]any{"k": 1.0}},
			"b": {ID: "b", Kind: "K", Meta: map[string]any{}, Settings: map[string]any{"url": "x"}},
		},
		Edges: [][2]string{{"a", "b"}},
	}
	if diff := cmp.Diff(want, m.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	apply(t, m, wire.NodesChannel, `{"type":"removeWidgets","selection":["a"]}`)
	assert.Empty(t, m.State().Edges)
	assert.Len(t, m.State().Nodes, 1)
}

func TestMirror_RejectsDanglingEdgesAndUnknownNodes(t *testing.T) {
	m := New()
	err := m.Apply(wire.EdgesChannel, []byte(`{"type":"addConnection","source":"a","target":"b"}`))
	assert.True(t, errors.Is(err, ErrDanglingEdge))

	err = m.Apply("widget-settings-a", []byte(`{"k":1}`))
	assert.True(t, errors.Is(err, ErrUnknownNode))
	assert.Empty(t, m.State().Edges)
}

func TestMirror_InitReplacesState(t *testing.T) {
	m := New()
	apply(t, m, wire.NodesChannel, `{"type":"addNode","id":"old","kind":"K"}`)
	apply(t, m, wire.NodesChannel, `{"type":"init","nodes":[{"id":"a","kind":"K","x":0,"y":0},{"id":"b","kind":"K","x":0,"y":0}]}`)
	apply(t, m, wire.EdgesChannel, `{"type":"init","connections":[["a","b"]]}`)
	apply(t, m, "widget-settings-b", `{"v":true}`)

	s := m.State()
	assert.NotContains(t, s.Nodes, "old")
	assert.Equal(t, [][2]string{{"a", "b"}}, s.Edges)
	assert.Equal(t, map[string]any{"v": true}, s.Nodes["b"].Settings)

	apply(t, m, wire.NodesChannel, `{"type":"init","nodes":[]}`)
	assert.Empty(t, m.State().Nodes)
	assert.Empty(t, m.State().Edges, "edges of vanished nodes are dropped")
}

func TestMirror_Ack(t *testing.T) {
	m := New()
	_, ok := m.LastAck()
	assert.False(t, ok)

	apply(t, m, wire.LoadSessionChannel, string(wire.NewAck("s1", true, 0, 0)))
	ack, ok := m.LastAck()
	require.True(t, ok)
	assert.Equal(t, wire.Ack{Type: "ack", SessionID: "s1", Created: true}, ack)
}
