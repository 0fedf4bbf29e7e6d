package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/inmemorysession"
	"github.com/vk/widgetgrid/internal/mirror"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"github.com/vk/widgetgrid/internal/testutil"
)

const flushTimeout = 5 * time.Second

type fixture struct {
	ctx    context.Context
	b      *Broker
	tr     *testutil.Transport
	rec    *testutil.Recorder
	store  *inmemorysession.Store
	writer *persist.Writer
	logs   *testutil.SafeBuffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logs := &testutil.SafeBuffer{}
	ctx := testutil.Context(logs)

	mod := testutil.NewRecordingModule()
	kinds := registry.NewWithModules(mod, &testutil.NoOpModule{})
	store := inmemorysession.New()
	writer := persist.New(store, persist.Options{QueueSize: 1024, InitialInterval: time.Millisecond})
	tr := &testutil.Transport{}
	b := New(kinds, store, writer, tr, Options{MaxCascadeDepth: 16})

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = b.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		_ = writer.Run(runCtx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return &fixture{ctx: ctx, b: b, tr: tr, rec: mod.Recorder, store: store, writer: writer, logs: logs}
}

// send dispatches payload and returns the rejection, if any.
func (f *fixture) send(client, channel, payload string) error {
	return f.b.Dispatch(f.ctx, client, channel, []byte(payload))
}

// must dispatches payload and fails the test on rejection.
func (f *fixture) must(t *testing.T, client, channel, payload string) {
	t.Helper()
	require.NoError(t, f.send(client, channel, payload))
}

// flush waits for broadcasts, scheduled runtime work and store writes.
func (f *fixture) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(f.ctx, flushTimeout)
	defer cancel()
	require.NoError(t, f.b.Flush(ctx))
	require.NoError(t, f.writer.Flush(ctx))
}

func (f *fixture) snapshot(t *testing.T, session string) (*sessionstore.Snapshot, bool) {
	t.Helper()
	f.flush(t)
	snap, ok, err := f.store.Get(f.ctx, session)
	require.NoError(t, err)
	return snap, ok
}

// mirrorOf applies msgs to a fresh mirror, failing on any rejection.
func mirrorOf(t *testing.T, msgs []testutil.Message) *mirror.Mirror {
	t.Helper()
	m := mirror.New()
	for _, msg := range msgs {
		require.NoError(t, m.Apply(msg.Channel, []byte(msg.Payload)), "applying %s %s", msg.Channel, msg.Payload)
	}
	return m
}
