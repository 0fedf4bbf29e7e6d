package print

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/testutil"
)

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	logs := &testutil.SafeBuffer{}
	ctx := testutil.Context(logs)
	rt, err := registry.NewWithModules(&Module{Out: &out}).Construct(Kind, testutil.NewHost("p"))
	require.NoError(t, err)

	rt.OnInput(ctx, map[string]any{"b": 2, "a": "x"})
	rt.OnInput(ctx, nil)

	assert.Equal(t, "[p]\n      a = x\n      b = 2\n[p]\n      (null)\n", out.String())
	assert.Contains(t, logs.String(), "Printing input")
}
