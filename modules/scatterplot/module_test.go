package scatterplot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/table"
	"github.com/vk/widgetgrid/internal/testutil"
)

func TestScatterPlot(t *testing.T) {
	ctx := testutil.Context(&testutil.SafeBuffer{})
	h := testutil.NewHost("plot")
	rt, err := registry.NewWithModules(&Module{}).Construct(Kind, h)
	require.NoError(t, err)

	tbl, err := table.Parse(strings.NewReader("name,a,b,c\nx,1,10,100\ny,?,20,200\nz,3,,300\nw,4,40,400\n"), ',')
	require.NoError(t, err)

	rt.OnInput(ctx, tbl)
	state := h.State()
	assert.Equal(t, []string{"name", "a", "b", "c"}, state["attrs"])
	assert.Equal(t, "a", state["x"])
	assert.Equal(t, "b", state["y"])
	assert.Equal(t, []float64{1, 4}, state["datax"])
	assert.Equal(t, []float64{10, 40}, state["datay"])

	rt.OnSettingsChanged(ctx, map[string]any{"y": "c"})
	state = h.State()
	assert.Equal(t, []float64{1, 3, 4}, state["datax"])
	assert.Equal(t, []float64{100, 300, 400}, state["datay"])

	rt.OnSettingsChanged(ctx, map[string]any{"x": "name"})
	assert.Equal(t, "Cannot plot non-numeric column", h.Message()["text"])
	assert.Nil(t, h.State()["datax"])

	rt.OnSettingsChanged(ctx, map[string]any{"x": "nope"})
	assert.Equal(t, "Unknown column", h.Message()["text"])

	rt.OnInput(ctx, nil)
	state = h.State()
	assert.Equal(t, []string{}, state["attrs"])
	assert.Nil(t, state["x"])
	assert.Nil(t, state["datax"])
	assert.Nil(t, state["datay"])
	assert.Nil(t, h.Message())

	rt.OnSettingsChanged(ctx, map[string]any{"x": "a"})
	assert.Nil(t, h.State()["datax"], "settings without data are ignored")
	assert.Empty(t, h.Emits())
}
