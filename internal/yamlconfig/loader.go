// Package yamlconfig provides the YAML implementation of config.Loader. It
// accepts the same blocks as the HCL loader:
//
//	server: {listen: ":4000"}
//	store: {backend: redis, redis_url: "redis://localhost:6379/0", ttl: 24h}
//	engine: {max_cascade_depth: 64}
//	seeds:
//	  - session: demo
//	    nodes:
//	      - {id: ds, kind: Data Set, settings: {url: "https://example.com/iris.tab"}}
//	      - {id: info, kind: Info}
//	    connections:
//	      - {source: ds, target: info}
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/fsutil"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for files that cannot be decoded.
var ErrInvalidConfig = zerr.New("invalid YAML configuration")

type document struct {
	Server struct {
		Listen     string `yaml:"listen"`
		CORSOrigin string `yaml:"cors_origin"`
	} `yaml:"server"`
	Store struct {
		Backend   string `yaml:"backend"`
		RedisURL  string `yaml:"redis_url"`
		KeyPrefix string `yaml:"key_prefix"`
		TTL       string `yaml:"ttl"`
	} `yaml:"store"`
	Engine struct {
		MaxCascadeDepth int `yaml:"max_cascade_depth"`
		PersistQueue    int `yaml:"persist_queue"`
		PersistRetries  int `yaml:"persist_retries"`
	} `yaml:"engine"`
	Seeds []seed `yaml:"seeds"`
}

type seed struct {
	Session string `yaml:"session"`
	Nodes   []struct {
		ID       string         `yaml:"id"`
		Kind     string         `yaml:"kind"`
		X        float64        `yaml:"x"`
		Y        float64        `yaml:"y"`
		Settings map[string]any `yaml:"settings"`
	} `yaml:"nodes"`
	Connections []struct {
		Source string `yaml:"source"`
		Target string `yaml:"target"`
	} `yaml:"connections"`
}

// Loader reads .yaml and .yml files.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes every YAML file found under paths and merges them in order.
// Missing paths are skipped. The result is not normalized.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	files, err := fsutil.FindFilesByExtension(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	model := &config.Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "read config"), "file", file)
		}
		var doc document
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, zerr.With(zerr.With(zerr.Wrap(ErrInvalidConfig, "decode"), "file", file), "reason", err.Error())
		}
		part, err := translate(&doc)
		if err != nil {
			return nil, zerr.With(err, "file", file)
		}
		model.Merge(part)
	}
	ctxlog.FromContext(ctx).Debug("YAML loading complete.", "files", len(files), "seeds", len(model.Seeds))
	return model, nil
}

func translate(doc *document) (*config.Model, error) {
	m := &config.Model{
		Server: config.Server{Listen: doc.Server.Listen, CORSOrigin: doc.Server.CORSOrigin},
		Store: config.Store{
			Backend:   doc.Store.Backend,
			RedisURL:  doc.Store.RedisURL,
			KeyPrefix: doc.Store.KeyPrefix,
		},
		Engine: config.Engine{
			MaxCascadeDepth: doc.Engine.MaxCascadeDepth,
			PersistQueue:    doc.Engine.PersistQueue,
			PersistRetries:  doc.Engine.PersistRetries,
		},
	}
	if doc.Store.TTL != "" {
		ttl, err := time.ParseDuration(doc.Store.TTL)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(ErrInvalidConfig, "store ttl"), "ttl", doc.Store.TTL)
		}
		m.Store.TTL = ttl
	}

	for _, s := range doc.Seeds {
		out := &config.Seed{SessionID: s.Session}
		for _, n := range s.Nodes {
			settings, _ := jsonLike(n.Settings).(map[string]any)
			if settings == nil {
				settings = map[string]any{}
			}
			out.Nodes = append(out.Nodes, &config.SeedNode{ID: n.ID, Kind: n.Kind, X: n.X, Y: n.Y, Settings: settings})
		}
		for _, c := range s.Connections {
			out.Connections = append(out.Connections, &config.SeedConnection{Source: c.Source, Target: c.Target})
		}
		m.Seeds = append(m.Seeds, out)
	}
	return m, nil
}

// jsonLike converts decoded YAML into the values JSON decoding would give:
// every number becomes float64.
func jsonLike(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonLike(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonLike(e)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}
