package config

import "time"

// Defaults applied by Normalize when a field is left empty.
const (
	DefaultListen          = ":4000"
	DefaultCORSOrigin      = "*"
	DefaultBackend         = "memory"
	DefaultKeyPrefix       = "widgetgrid:"
	DefaultMaxCascadeDepth = 64
	DefaultPersistQueue    = 1024
	DefaultPersistRetries  = 5
)

// Model is the unified, format-agnostic representation of the entire
// application configuration.
type Model struct {
	Server Server
	Store  Store
	Engine Engine
	Seeds  []*Seed
}

// Server configures the real-time endpoint.
type Server struct {
	Listen     string
	CORSOrigin string
}

// Store selects and configures the session store backend.
type Store struct {
	// Backend is "memory" or "redis".
	Backend   string
	RedisURL  string
	KeyPrefix string
	// TTL expires idle sessions in backends that support it. Zero keeps them forever.
	TTL time.Duration
}

// Engine tunes the propagation and persistence machinery.
type Engine struct {
	MaxCascadeDepth int
	PersistQueue    int
	PersistRetries  int
}

// Seed pre-populates a session in the store when it does not exist yet.
type Seed struct {
	SessionID   string
	Nodes       []*SeedNode
	Connections []*SeedConnection
}

// SeedNode is a node declared by a seed.
type SeedNode struct {
	ID       string
	Kind     string
	X        float64
	Y        float64
	Settings map[string]any
}

// SeedConnection is an edge declared by a seed.
type SeedConnection struct {
	Source string
	Target string
}

// New returns an empty model with defaults applied.
func New() *Model {
	m := &Model{}
	m.Normalize()
	return m
}

// Normalize fills every empty field with its default.
func (m *Model) Normalize() {
	if m.Server.Listen == "" {
		m.Server.Listen = DefaultListen
	}
	if m.Server.CORSOrigin == "" {
		m.Server.CORSOrigin = DefaultCORSOrigin
	}
	if m.Store.Backend == "" {
		m.Store.Backend = DefaultBackend
	}
	if m.Store.KeyPrefix == "" {
		m.Store.KeyPrefix = DefaultKeyPrefix
	}
	if m.Engine.MaxCascadeDepth <= 0 {
		m.Engine.MaxCascadeDepth = DefaultMaxCascadeDepth
	}
	if m.Engine.PersistQueue <= 0 {
		m.Engine.PersistQueue = DefaultPersistQueue
	}
	if m.Engine.PersistRetries <= 0 {
		m.Engine.PersistRetries = DefaultPersistRetries
	}
}

// Merge overlays every non-zero field of other onto m. Seeds are appended.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	if other.Server.Listen != "" {
		m.Server.Listen = other.Server.Listen
	}
	if other.Server.CORSOrigin != "" {
		m.Server.CORSOrigin = other.Server.CORSOrigin
	}
	if other.Store.Backend != "" {
		m.Store.Backend = other.Store.Backend
	}
	if other.Store.RedisURL != "" {
		m.Store.RedisURL = other.Store.RedisURL
	}
	if other.Store.KeyPrefix != "" {
		m.Store.KeyPrefix = other.Store.KeyPrefix
	}
	if other.Store.TTL != 0 {
		m.Store.TTL = other.Store.TTL
	}
	if other.Engine.MaxCascadeDepth != 0 {
		m.Engine.MaxCascadeDepth = other.Engine.MaxCascadeDepth
	}
	if other.Engine.PersistQueue != 0 {
		m.Engine.PersistQueue = other.Engine.PersistQueue
	}
	if other.Engine.PersistRetries != 0 {
		m.Engine.PersistRetries = other.Engine.PersistRetries
	}
	m.Seeds = append(m.Seeds, other.Seeds...)
}
