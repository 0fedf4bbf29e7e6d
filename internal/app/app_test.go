package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/hcl"
	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/testutil"
	"github.com/vk/widgetgrid/internal/yamlconfig"
	"github.com/vk/widgetgrid/modules/dataset"
	"github.com/vk/widgetgrid/modules/info"
	"github.com/vk/widgetgrid/modules/print"
	"github.com/vk/widgetgrid/modules/scatterplot"
)

const demoSeed = `
seed "demo" {
  node "info" {
    kind = "Info"
    x    = 10
  }
  node "out" {
    kind     = "Print"
    settings = { label = "sink" }
  }
  connection {
    source = "info"
    target = "out"
  }
}
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func loaders() config.Loader {
	return config.Chain{hcl.NewLoader(), yamlconfig.NewLoader()}
}

func TestNewApp_LoadsConfigAndRegistersKinds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.hcl"), []byte(demoSeed), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine.yaml"), []byte("server:\n  listen: \":5000\"\nengine:\n  max_cascade_depth: 8\n"), 0o600))

	a, _ := SetupAppTest(t, &Config{ConfigPaths: []string{dir}}, loaders())

	cfg := a.Config()
	assert.Equal(t, "127.0.0.1:0", cfg.Server.Listen, "command-line values win")
	assert.Equal(t, 8, cfg.Engine.MaxCascadeDepth)
	assert.Equal(t, "memory", cfg.Store.Backend)
	require.Len(t, cfg.Seeds, 1)
	assert.Equal(t, "demo", cfg.Seeds[0].SessionID)

	for _, kind := range []string{dataset.Kind, info.Kind, scatterplot.Kind, print.Kind} {
		assert.True(t, a.Registry().Has(kind), kind)
	}
}

func TestNewApp_StartupFailuresPanic(t *testing.T) {
	testCases := []struct {
		name string
		cfg  func(t *testing.T) *Config
	}{
		{
			name: "invalid hcl",
			cfg: func(t *testing.T) *Config {
				return &Config{ConfigPaths: []string{writeConfig(t, "bad.hcl", "seed \"x\" {")}}
			},
		},
		{
			name: "seed with unknown kind",
			cfg: func(t *testing.T) *Config {
				return &Config{ConfigPaths: []string{writeConfig(t, "seed.hcl", "seed \"x\" {\n  node \"a\" { kind = \"Nope\" }\n}\n")}}
			},
		},
		{
			name: "redis without url",
			cfg:  func(*testing.T) *Config { return &Config{Store: "redis"} },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg(t)
			assert.Panics(t, func() { NewApp(&SafeBuffer{}, cfg, loaders()) })
		})
	}
}

func TestSeedSnapshot(t *testing.T) {
	snap := seedSnapshot(&config.Seed{
		SessionID: "s",
		Nodes: []*config.SeedNode{
			{ID: "a", Kind: "Info", X: 1},
			{ID: "b", Kind: "Print", Settings: map[string]any{"label": "x"}},
		},
		Connections: []*config.SeedConnection{{Source: "a", Target: "b"}},
	})

	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, 1.0, snap.Nodes[0].X)
	assert.Equal(t, map[string]map[string]any{"b": {"label": "x"}}, snap.Settings)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, "b", snap.Edges[0].Target)
}

func TestNewApp_ExplicitModulesReplaceCoreSet(t *testing.T) {
	only := &testutil.SimpleModule{Kind: "Only", Ctor: func(node.Host) (node.Runtime, error) {
		return nil, nil
	}}
	a, _ := SetupAppTest(t, &Config{}, nil, only)

	assert.Equal(t, []string{"Only"}, a.Registry().Kinds())
	assert.Equal(t, "127.0.0.1:0", a.Config().Server.Listen)
}
