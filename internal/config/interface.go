package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model. Paths that do not exist are skipped.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Chain runs several loaders over the same paths and merges their models in
// order. Each loader picks the files it understands.
type Chain []Loader

var _ Loader = Chain(nil)

// Load implements Loader.
func (c Chain) Load(ctx context.Context, paths ...string) (*Model, error) {
	m := &Model{}
	for _, l := range c {
		part, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, err
		}
		m.Merge(part)
	}
	return m, nil
}
