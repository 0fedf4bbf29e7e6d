package socketio

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/broker"
	"github.com/vk/widgetgrid/internal/client"
	"github.com/vk/widgetgrid/internal/inmemorysession"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/testutil"
	"github.com/vk/widgetgrid/internal/wire"
	"github.com/zishang520/socket.io/v2/socket"
)

const waitFor = 5 * time.Second

func startServer(t *testing.T) (string, *broker.Broker, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(testutil.Context(&testutil.SafeBuffer{}))

	srv := NewServer(ctx, Options{})
	kinds := registry.NewWithModules(testutil.NewRecordingModule())
	b := broker.New(kinds, inmemorysession.New(), nil, srv, broker.Options{})
	srv.Bind(b)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()

	mux := http.NewServeMux()
	mux.Handle(Path, srv.Handler())
	hs := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		hs.Close()
		cancel()
		<-done
	})
	return hs.URL, b, ctx
}

func dial(t *testing.T, ctx context.Context, url string) *client.Client {
	t.Helper()
	c, err := client.Dial(ctx, url, client.Options{ConnectTimeout: waitFor})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestServer_RoundTrip(t *testing.T) {
	url, b, ctx := startServer(t)
	author := dial(t, ctx, url)
	watcher := dial(t, ctx, url)

	require.NoError(t, author.Send(wire.NodesChannel, map[string]any{"type": "addNode", "id": "a", "kind": "K", "x": 1, "y": 2}))
	require.NoError(t, author.Send(wire.NodesChannel, `{"type":"addWidget","widgetId":"b","widgetType":"K"}`))
	require.NoError(t, author.Send(wire.EdgesChannel, map[string]any{"type": "addConnection", "source": "a", "target": "b"}))
	require.NoError(t, author.Send("widget-settings-a", map[string]any{"label": "hello"}))

	require.Eventually(t, func() bool {
		s := watcher.Mirror().State()
		return len(s.Edges) == 1 && s.Nodes["a"].Settings["label"] == "hello"
	}, waitFor, 10*time.Millisecond, "broadcasts reach every client")
	assert.Equal(t, []string{"a", "b"}, b.NodeIDs(ctx))

	late := dial(t, ctx, url)
	require.NoError(t, late.Bootstrap())
	require.Eventually(t, func() bool {
		s := late.Mirror().State()
		return len(s.Edges) == 1 && s.Nodes["a"].Settings["label"] == "hello"
	}, waitFor, 10*time.Millisecond, "bootstrap reaches the requester")
	assert.Equal(t, watcher.Mirror().State(), late.Mirror().State())
}

func TestServer_BurstArrivesInOrder(t *testing.T) {
	url, b, ctx := startServer(t)
	author := dial(t, ctx, url)
	watcher := dial(t, ctx, url)

	var mu sync.Mutex
	var seen []string
	watcher.OnMessage(func(channel string, payload []byte, _ error) {
		mu.Lock()
		defer mu.Unlock()
		if channel == wire.EdgesChannel {
			seen = append(seen, "edge")
			return
		}
		if ev, err := wire.Decode(payload); err == nil && channel == wire.NodesChannel {
			seen = append(seen, ev.ID)
		}
	})

	var want []string
	for i := range 20 {
		id := fmt.Sprintf("n%02d", i)
		want = append(want, id)
		require.NoError(t, author.Send(wire.NodesChannel, map[string]any{"type": "addNode", "id": id, "kind": "K"}))
	}
	require.NoError(t, author.Send(wire.EdgesChannel, map[string]any{"type": "addConnection", "source": "n00", "target": "n19"}))
	want = append(want, "edge")
	assert.Equal(t, want[:20], b.NodeIDs(ctx), "the server handled sends in order")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == len(want)
	}, waitFor, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, seen)
}

func TestServer_LoadSessionAckGoesToRequester(t *testing.T) {
	url, _, ctx := startServer(t)
	requester := dial(t, ctx, url)
	other := dial(t, ctx, url)

	require.NoError(t, requester.LoadSession("s1"))
	require.Eventually(t, func() bool {
		_, ok := requester.Mirror().LastAck()
		return ok
	}, waitFor, 10*time.Millisecond)

	ack, _ := requester.Mirror().LastAck()
	assert.True(t, ack.Created)
	assert.Equal(t, "s1", ack.SessionID)
	_, ok := other.Mirror().LastAck()
	assert.False(t, ok)
}

func TestServer_Disconnect(t *testing.T) {
	url, b, ctx := startServer(t)
	c := dial(t, ctx, url)
	require.NoError(t, c.Bootstrap())
	require.Eventually(t, func() bool {
		return len(b.Clients()) == 1
	}, waitFor, 10*time.Millisecond)

	c.Close()
	require.Eventually(t, func() bool {
		return len(b.Clients()) == 0
	}, waitFor, 10*time.Millisecond)

	require.Error(t, c.Send(wire.NodesChannel, wire.InitRequest))
}

func TestInbound(t *testing.T) {
	var acked bool
	ack := socket.Ack(func([]any, error) { acked = true })

	channel, payload, gotAck, err := inbound([]any{"widget-action", map[string]any{"type": "addNode"}, ack})
	require.NoError(t, err)
	assert.Equal(t, "widget-action", channel)
	assert.JSONEq(t, `{"type":"addNode"}`, string(payload))
	require.NotNil(t, gotAck)
	gotAck(nil, nil)
	assert.True(t, acked)

	channel, _, gotAck, err = inbound([]any{"load-session"})
	assert.Equal(t, "load-session", channel)
	assert.Nil(t, gotAck)
	require.Error(t, err, "an event without payload is rejected")

	channel, _, _, err = inbound([]any{42})
	assert.Empty(t, channel)
	assert.NoError(t, err)
}
