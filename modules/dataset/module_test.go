package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/table"
	"github.com/vk/widgetgrid/internal/testutil"
)

func newRuntime(t *testing.T, client *http.Client) (node.Runtime, *testutil.Host, context.Context) {
	t.Helper()
	r := registry.NewWithModules(&Module{Client: client})
	h := testutil.NewHost("ds")
	rt, err := r.Construct(Kind, h)
	require.NoError(t, err)
	t.Cleanup(rt.(node.Closer).Close)
	return rt, h, testutil.Context(&testutil.SafeBuffer{})
}

func TestStart_NoURL(t *testing.T) {
	rt, h, ctx := newRuntime(t, nil)
	rt.(node.Starter).Start(ctx)

	assert.Equal(t, []node.Value{nil}, h.Emits())
	assert.Equal(t, "No data", h.Message()["text"])
	assert.Equal(t, node.SeverityInfo, h.Message()["type"])
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			_, _ = w.Write([]byte("x,y\n1,2\n3,4\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rt, h, ctx := newRuntime(t, srv.Client())
	rt.OnSettingsChanged(ctx, map[string]any{"url": srv.URL + "/data.csv"})

	require.Eventually(t, func() bool { return h.Pending() == 1 }, 5*time.Second, 10*time.Millisecond)
	h.Drain(ctx)
	require.Len(t, h.Emits(), 1)
	tbl, ok := h.Emits()[0].(*table.Table)
	require.True(t, ok)
	assert.Equal(t, 2, tbl.Rows)
	assert.Nil(t, h.Message())

	rt.OnSettingsChanged(ctx, map[string]any{"url": srv.URL + "/missing.csv"})
	require.Eventually(t, func() bool { return h.Pending() == 1 }, 5*time.Second, 10*time.Millisecond)
	h.Drain(ctx)
	require.Len(t, h.Emits(), 2)
	assert.Nil(t, h.Emits()[1])
	assert.Equal(t, "Error while loading data", h.Message()["text"])
	assert.Equal(t, node.SeverityError, h.Message()["type"])

	rt.OnSettingsChanged(ctx, map[string]any{"title": "unrelated"})
	assert.Len(t, h.Emits(), 2, "only url changes reload")
}

func TestLoad_StaleResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.csv" {
			<-release
		}
		_, _ = w.Write([]byte("a\n1\n"))
	}))
	defer srv.Close()
	defer close(release)

	rt, h, ctx := newRuntime(t, srv.Client())
	rt.OnSettingsChanged(ctx, map[string]any{"url": srv.URL + "/slow.csv"})
	rt.OnSettingsChanged(ctx, map[string]any{"url": ""})

	assert.Equal(t, []node.Value{nil}, h.Emits())
	release <- struct{}{}
	require.Eventually(t, func() bool { return h.Pending() == 1 }, 5*time.Second, 10*time.Millisecond)
	h.Drain(ctx)
	assert.Equal(t, []node.Value{nil}, h.Emits(), "the slow load finished after a newer update")
}
