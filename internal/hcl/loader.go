package hcl

import (
	"context"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/fsutil"
	"go.trai.ch/zerr"
)

// ErrInvalidConfig is returned for files that cannot be parsed or decoded.
var ErrInvalidConfig = zerr.New("invalid HCL configuration")

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and merges them into one
// model. The result is not normalized.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, invalid(file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
			return nil, invalid(file, diags)
		}

		part, err := translate(ctx, &root)
		if err != nil {
			return nil, zerr.With(err, "file", file)
		}
		model.Merge(part)
	}

	logger.Debug("HCL loading complete.", "files", len(files), "seeds", len(model.Seeds))
	return model, nil
}

func invalid(file string, diags hcl.Diagnostics) error {
	return zerr.With(zerr.With(zerr.Wrap(ErrInvalidConfig, "decode"), "file", file), "diagnostics", diags.Error())
}

func translate(ctx context.Context, root *fileRoot) (*config.Model, error) {
	m := &config.Model{}
	if s := root.Server; s != nil {
		m.Server = config.Server{Listen: s.Listen, CORSOrigin: s.CORSOrigin}
	}
	if s := root.Store; s != nil {
		m.Store = config.Store{Backend: s.Backend, RedisURL: s.RedisURL, KeyPrefix: s.KeyPrefix}
		if s.TTL != "" {
			ttl, err := time.ParseDuration(s.TTL)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(ErrInvalidConfig, "store ttl"), "ttl", s.TTL)
			}
			m.Store.TTL = ttl
		}
	}
	if e := root.Engine; e != nil {
		m.Engine = config.Engine{
			MaxCascadeDepth: e.MaxCascadeDepth,
			PersistQueue:    e.PersistQueue,
			PersistRetries:  e.PersistRetries,
		}
	}
	for _, s := range root.Seeds {
		seed, err := translateSeed(ctx, s)
		if err != nil {
			return nil, err
		}
		m.Seeds = append(m.Seeds, seed)
	}
	return m, nil
}

func translateSeed(ctx context.Context, s *seedBlock) (*config.Seed, error) {
	seed := &config.Seed{SessionID: s.SessionID}
	for _, n := range s.Nodes {
		settings := map[string]any{}
		if isExprDefined(n.Settings) {
			val, diags := n.Settings.Value(nil)
			if diags.HasErrors() {
				return nil, zerr.With(zerr.With(zerr.Wrap(ErrInvalidConfig, "node settings"), "node", n.ID), "diagnostics", diags.Error())
			}
			native, err := ToGo(val)
			if err != nil {
				return nil, zerr.With(err, "node", n.ID)
			}
			m, ok := native.(map[string]any)
			if !ok {
				return nil, zerr.With(zerr.Wrap(ErrInvalidConfig, "node settings must be an object"), "node", n.ID)
			}
			settings = m
		}
		seed.Nodes = append(seed.Nodes, &config.SeedNode{ID: n.ID, Kind: n.Kind, X: n.X, Y: n.Y, Settings: settings})
	}
	for _, c := range s.Connections {
		seed.Connections = append(seed.Connections, &config.SeedConnection{Source: c.Source, Target: c.Target})
	}
	ctxlog.FromContext(ctx).Debug("Translated seed.", "session", seed.SessionID, "nodes", len(seed.Nodes), "connections", len(seed.Connections))
	return seed, nil
}

// isExprDefined reports whether an optional attribute was actually written.
// The decoder fills omitted ones with a zero-width placeholder expression.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
