package persist

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/sessionstore/mocks"
	"go.uber.org/mock/gomock"
)

func testOptions() Options {
	return Options{QueueSize: 8, MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func startWriter(t *testing.T, store sessionstore.Store, opts Options) (*Writer, context.Context, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx, cancel := context.WithCancel(ctx)

	w := New(store, opts)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, ctx, &logs
}

func flush(t *testing.T, ctx context.Context, w *Writer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Flush(ctx))
}

func TestWriter_AppliesInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	rec := sessionstore.NodeRecord{ID: "n1", Kind: "Info"}
	edge := sessionstore.Edge{Source: "n1", Target: "n2"}
	gomock.InOrder(
		store.EXPECT().AppendNode(gomock.Any(), "s1", rec).Return(nil),
		store.EXPECT().AppendEdge(gomock.Any(), "s1", edge).Return(nil),
		store.EXPECT().UpdateSettings(gomock.Any(), "s1", "n1", map[string]any{"url": "a"}).Return(nil),
		store.EXPECT().RemoveEdge(gomock.Any(), "s1", edge).Return(nil),
		store.EXPECT().RemoveNode(gomock.Any(), "s1", "n1").Return(nil),
	)

	w, ctx, _ := startWriter(t, store, testOptions())
	require.True(t, w.Enqueue(ctx, AppendNode("s1", rec)))
	require.True(t, w.Enqueue(ctx, AppendEdge("s1", edge)))
	require.True(t, w.Enqueue(ctx, UpdateSettings("s1", "n1", map[string]any{"url": "a"})))
	require.True(t, w.Enqueue(ctx, RemoveEdge("s1", edge)))
	require.True(t, w.Enqueue(ctx, RemoveNode("s1", "n1")))
	flush(t, ctx, w)

	assert.False(t, w.Degraded())
}

func TestWriter_CreateNeverReplaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	rec := sessionstore.NodeRecord{ID: "n1", Kind: "Info"}
	gomock.InOrder(
		store.EXPECT().Create(gomock.Any(), "s1").Return(true, nil),
		store.EXPECT().AppendNode(gomock.Any(), "s1", rec).Return(nil),
		store.EXPECT().Create(gomock.Any(), "s1").Return(false, nil),
	)
	store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w, ctx, _ := startWriter(t, store, testOptions())
	require.True(t, w.Enqueue(ctx, Create("s1")))
	require.True(t, w.Enqueue(ctx, AppendNode("s1", rec)))
	require.True(t, w.Enqueue(ctx, Create("s1")))
	flush(t, ctx, w)
	assert.False(t, w.Degraded())
}

func TestWriter_RetriesThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	gomock.InOrder(
		store.EXPECT().RemoveNode(gomock.Any(), "s1", "n1").Return(errors.New("connection reset")),
		store.EXPECT().RemoveNode(gomock.Any(), "s1", "n1").Return(nil),
	)

	w, ctx, _ := startWriter(t, store, testOptions())
	w.Enqueue(ctx, RemoveNode("s1", "n1"))
	flush(t, ctx, w)

	assert.False(t, w.Degraded())
}

func TestWriter_ExhaustedRetriesDegradeUntilNextSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	// One initial attempt plus MaxRetries retries.
	store.EXPECT().RemoveNode(gomock.Any(), "s1", "n1").Return(errors.New("down")).Times(3)
	store.EXPECT().RemoveNode(gomock.Any(), "s1", "n2").Return(nil)

	w, ctx, logs := startWriter(t, store, testOptions())
	w.Enqueue(ctx, RemoveNode("s1", "n1"))
	flush(t, ctx, w)

	assert.True(t, w.Degraded())
	assert.Contains(t, logs.String(), "persist delta")
	assert.Contains(t, logs.String(), "op=remove_node")

	w.Enqueue(ctx, RemoveNode("s1", "n2"))
	flush(t, ctx, w)
	assert.False(t, w.Degraded())
}

func TestWriter_FullQueueDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	// Not running: nothing drains the queue.
	w := New(store, Options{QueueSize: 1})
	require.True(t, w.Enqueue(ctx, RemoveNode("s1", "a")))
	require.False(t, w.Enqueue(ctx, RemoveNode("s1", "b")))

	assert.True(t, w.Degraded())
	assert.Contains(t, logs.String(), "persistence queue full")
}

func TestWriter_DrainsOnShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().RemoveNode(gomock.Any(), "s1", "a").Return(nil)

	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.DiscardHandler))
	w := New(store, testOptions())
	require.True(t, w.Enqueue(ctx, RemoveNode("s1", "a")))

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, w.Run(runCtx))
	require.NoError(t, w.Flush(ctx))
}

func TestDeltas_CopyInputs(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	delta := map[string]any{"url": "a"}
	d := UpdateSettings("s1", "n1", delta)
	delta["url"] = "changed"

	store.EXPECT().UpdateSettings(gomock.Any(), "s1", "n1", map[string]any{"url": "a"}).Return(nil)
	require.NoError(t, d.Apply(context.Background(), store))
}
