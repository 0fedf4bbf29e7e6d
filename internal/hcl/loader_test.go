package hcl

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/testutil"
)

func TestLoad(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"a.hcl": `
server {
  listen = ":5000"
}
store {
  backend   = "redis"
  redis_url = "redis://localhost:6379/1"
  ttl       = "2h"
}
seed "demo" {
  node "ds" {
    kind     = "Data Set"
    x        = 10
    settings = {
      url   = "https://example.com/iris.tab"
      limit = 5
      tags  = ["a", "b"]
      extra = { on = true, none = null }
    }
  }
  node "info" {
    kind = "Info"
  }
  connection {
    source = "ds"
    target = "info"
  }
}
`,
		"sub/b.hcl": `
engine {
  max_cascade_depth = 8
}
server {
  cors_origin = "https://app.example.com"
}
`,
		"ignored.txt": `not hcl`,
	})
	ctx := testutil.Context(&testutil.SafeBuffer{})

	m, err := NewLoader().Load(ctx, root, filepath.Join(root, "missing.hcl"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", m.Server.Listen)
	assert.Equal(t, "https://app.example.com", m.Server.CORSOrigin)
	assert.Equal(t, "redis", m.Store.Backend)
	assert.Equal(t, "redis://localhost:6379/1", m.Store.RedisURL)
	assert.Equal(t, 2*time.Hour, m.Store.TTL)
	assert.Equal(t, 8, m.Engine.MaxCascadeDepth)

	require.Len(t, m.Seeds, 1)
	seed := m.Seeds[0]
	assert.Equal(t, "demo", seed.SessionID)
	require.Len(t, seed.Nodes, 2)
	assert.Equal(t, &config.SeedNode{
		ID:   "ds",
		Kind: "Data Set",
		X:    10,
		Settings: map[string]any{
			"url":   "https://example.com/iris.tab",
			"limit": 5.0,
			"tags":  []any{"a", "b"},
			"extra": map[string]any{"on": true, "none": nil},
		},
	}, seed.Nodes[0])
	assert.Equal(t, map[string]any{}, seed.Nodes[1].Settings)
	assert.Equal(t, []*config.SeedConnection{{Source: "ds", Target: "info"}}, seed.Connections)
}

func TestLoad_Errors(t *testing.T) {
	ctx := testutil.Context(&testutil.SafeBuffer{})
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `server {`},
		{"unknown attribute", `server { port = 1 }`},
		{"bad ttl", `store { ttl = "soon" }`},
		{"settings not an object", `seed "s" { node "n" { kind = "K"  settings = "x" } }`},
		{"node without kind", `seed "s" { node "n" {} }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := testutil.WriteFiles(t, map[string]string{"c.hcl": tt.content})
			_, err := NewLoader().Load(ctx, root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}
