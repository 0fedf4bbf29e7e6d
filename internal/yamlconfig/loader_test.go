package yamlconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/testutil"
)

func TestLoad(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"a.yaml": `
server:
  listen: ":5000"
store:
  backend: redis
  ttl: 90m
seeds:
  - session: demo
    nodes:
      - id: ds
        kind: Data Set
        x: 3
        settings:
          url: data.csv
          limit: 5
          cols: [1, two]
      - id: info
        kind: Info
    connections:
      - {source: ds, target: info}
`,
		"b.yml":      "engine:\n  max_cascade_depth: 4\n",
		"empty.yaml": "",
		"c.hcl":      "ignored",
	})
	ctx := testutil.Context(&testutil.SafeBuffer{})

	m, err := NewLoader().Load(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, ":5000", m.Server.Listen)
	assert.Equal(t, "redis", m.Store.Backend)
	assert.Equal(t, 90*time.Minute, m.Store.TTL)
	assert.Equal(t, 4, m.Engine.MaxCascadeDepth)

	require.Len(t, m.Seeds, 1)
	require.Len(t, m.Seeds[0].Nodes, 2)
	assert.Equal(t, &config.SeedNode{
		ID:       "ds",
		Kind:     "Data Set",
		X:        3,
		Settings: map[string]any{"url": "data.csv", "limit": 5.0, "cols": []any{1.0, "two"}},
	}, m.Seeds[0].Nodes[0])
	assert.Equal(t, map[string]any{}, m.Seeds[0].Nodes[1].Settings)
	assert.Equal(t, []*config.SeedConnection{{Source: "ds", Target: "info"}}, m.Seeds[0].Connections)
}

func TestLoad_Errors(t *testing.T) {
	ctx := testutil.Context(&testutil.SafeBuffer{})
	for name, content := range map[string]string{
		"unknown field": "server:\n  port: 1\n",
		"bad ttl":       "store:\n  ttl: soon\n",
		"not yaml":      "server: [",
	} {
		t.Run(name, func(t *testing.T) {
			root := testutil.WriteFiles(t, map[string]string{"c.yaml": content})
			_, err := NewLoader().Load(ctx, root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}
