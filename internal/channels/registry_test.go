package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/testutil"
)

func nop(context.Context, string, []byte) error { return nil }

func TestOpenClose(t *testing.T) {
	logs := &testutil.SafeBuffer{}
	ctx := testutil.Context(logs)
	r := New()
	require.NoError(t, r.Open(ctx, "b", nop))
	require.NoError(t, r.Open(ctx, "a", nop))

	err := r.Open(ctx, "a", nop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyOpen))

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.True(t, r.IsOpen("a"))

	assert.True(t, r.Close(ctx, "a"))
	assert.False(t, r.Close(ctx, "a"), "closing twice is a no-op")
	_, ok := r.Lookup("a")
	assert.False(t, ok)

	require.NoError(t, r.Open(ctx, "a", nop), "a closed channel can be reopened")

	assert.Contains(t, logs.String(), `msg="Opened channel." channel=b`)
	assert.Contains(t, logs.String(), `msg="Closed channel." channel=a`)
}

func TestLookup_InvokesHandler(t *testing.T) {
	ctx := testutil.Context(io.Discard)
	r := New()
	var got string
	require.NoError(t, r.Open(ctx, "x", func(_ context.Context, client string, payload []byte) error {
		got = client + ":" + string(payload)
		return nil
	}))

	h, ok := r.Lookup("x")
	require.True(t, ok)
	require.NoError(t, h(context.Background(), "c1", []byte("hi")))
	assert.Equal(t, "c1:hi", got)
}

func TestConcurrentOpenClose(t *testing.T) {
	ctx := testutil.Context(io.Discard)
	r := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("ch-%d", i)
			assert.NoError(t, r.Open(ctx, name, nop))
			r.Lookup(name)
			assert.True(t, r.Close(ctx, name))
		}()
	}
	wg.Wait()
	assert.Empty(t, r.Names())
}
