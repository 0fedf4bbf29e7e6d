package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Aliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
	}{
		{
			name:    "add widget",
			payload: `{"type":"addWidget","widgetId":"n1","widgetType":"Info","x":10,"y":20,"label":"a","sessionId":"s1"}`,
			want:    Event{Type: TypeAddNode, ID: "n1", Kind: "Info", X: 10, Y: 20, HasX: true, HasY: true, HasPos: true, SessionID: "s1"},
		},
		{
			name:    "add node canonical",
			payload: `{"type":"addNode","id":"n1","kind":"Info","settings":{"url":"a.csv"}}`,
			want:    Event{Type: TypeAddNode, ID: "n1", Kind: "Info", Settings: map[string]any{"url": "a.csv"}},
		},
		{
			name:    "remove widgets selection",
			payload: `{"type":"removeWidgets","selection":["a","b"]}`,
			want:    Event{Type: TypeRemoveNodes, IDs: []string{"a", "b"}},
		},
		{
			name:    "remove nodes empty",
			payload: `{"type":"removeNodes","ids":[]}`,
			want:    Event{Type: TypeRemoveNodes, IDs: []string{}},
		},
		{
			name:    "connection ids",
			payload: `{"type":"addConnection","sourceId":"a","targetId":"b"}`,
			want:    Event{Type: TypeAddConnection, Source: "a", Target: "b"},
		},
		{
			name:    "move",
			payload: `{"type":"moveWidget","widgetId":"a","x":1.5,"y":-2}`,
			want:    Event{Type: TypeMoveNode, ID: "a", X: 1.5, Y: -2, HasX: true, HasY: true, HasPos: true},
		},
		{
			name:    "move one axis",
			payload: `{"type":"moveNode","id":"a","y":4}`,
			want:    Event{Type: TypeMoveNode, ID: "a", Y: 4, HasY: true, HasPos: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.payload))
			require.NoError(t, err)
			got.Fields = nil
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	payloads := []string{
		`not json`,
		`[1,2]`,
		`{"widgetId":"a"}`,
		`{"type":"explode"}`,
		`{"type":"addWidget","widgetId":"a"}`,
		`{"type":"removeWidget"}`,
		`{"type":"removeWidgets"}`,
		`{"type":"moveWidget","widgetId":"a"}`,
		`{"type":"addConnection","sourceId":"a"}`,
	}
	for _, p := range payloads {
		_, err := Decode([]byte(p))
		require.Error(t, err, p)
		assert.True(t, errors.Is(err, ErrMalformed), p)
	}
}

func TestEvent_MetaDropsEngineFields(t *testing.T) {
	e, err := Decode([]byte(`{"type":"addWidget","widgetId":"n1","widgetType":"Info","x":1,"y":2,"title":"Info","sessionId":"s"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Info"}, e.Meta())
	assert.NotContains(t, e.Fields, FieldSessionID)
}

func TestSentinel(t *testing.T) {
	for payload, want := range map[string]string{
		`init_request`:       InitRequest,
		`"init_request"`:     InitRequest,
		` replay_request `:   ReplayRequest,
		`"replay_request"`:   ReplayRequest,
		`{"type":"addNode"}`: "",
		`"other"`:            "",
	} {
		got, ok := Sentinel([]byte(payload))
		assert.Equal(t, want, got, payload)
		assert.Equal(t, want != "", ok, payload)
	}
}

func TestNormalize(t *testing.T) {
	b, err := Normalize(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))

	b, err = Normalize(map[string]any{"a": 1.0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	_, err = Normalize(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeSettings_StripsSession(t *testing.T) {
	delta, session, err := DecodeSettings([]byte(`{"url":"a.csv","sessionId":"s1"}`))
	require.NoError(t, err)
	assert.Equal(t, "s1", session)
	assert.Equal(t, map[string]any{"url": "a.csv"}, delta)
}

func TestChannels(t *testing.T) {
	assert.Equal(t, "widget-settings-n1", SettingsChannel("n1"))
	id, ok := NodeOf("widget-settings-n1")
	assert.True(t, ok)
	assert.Equal(t, "n1", id)
	_, ok = NodeOf("widget-settings-")
	assert.False(t, ok)
	_, ok = NodeOf(NodesChannel)
	assert.False(t, ok)
}

func TestGeneratedMessages(t *testing.T) {
	entry := NodeEntry{ID: "n1", Kind: "Info", X: 1, Y: 2, Meta: map[string]any{"title": "t", "id": "spoof"}}
	assert.JSONEq(t, `{"type":"addNode","id":"n1","kind":"Info","x":1,"y":2,"title":"t"}`, string(AddNode(entry)))
	assert.JSONEq(t, `{"type":"init","nodes":[{"id":"n1","kind":"Info","x":1,"y":2,"title":"t"}]}`, string(NodesInit([]NodeEntry{entry})))
	assert.JSONEq(t, `{"type":"init","connections":[]}`, string(EdgesInit(nil)))
	assert.JSONEq(t, `{"type":"init","connections":[["a","b"]]}`, string(EdgesInit([][2]string{{"a", "b"}})))
	assert.JSONEq(t, `{"type":"ack","sessionId":"s1","created":true,"nodes":0,"connections":0}`, string(NewAck("s1", true, 0, 0)))

	e, err := Decode(AddConnection("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "a", e.Source)
	assert.Equal(t, "b", e.Target)
}

func TestDecodeLoadSession(t *testing.T) {
	req, err := DecodeLoadSession([]byte(`{"sessionId":"s1"}`))
	require.NoError(t, err)
	assert.Equal(t, "s1", req.SessionID)

	_, err = DecodeLoadSession([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMalformed)
}
