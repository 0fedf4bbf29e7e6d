package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode every top-level block a file may contain.
type fileRoot struct {
	Server *serverBlock `hcl:"server,block"`
	Store  *storeBlock  `hcl:"store,block"`
	Engine *engineBlock `hcl:"engine,block"`
	Seeds  []*seedBlock `hcl:"seed,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type serverBlock struct {
	Listen     string `hcl:"listen,optional"`
	CORSOrigin string `hcl:"cors_origin,optional"`
}

type storeBlock struct {
	Backend   string `hcl:"backend,optional"`
	RedisURL  string `hcl:"redis_url,optional"`
	KeyPrefix string `hcl:"key_prefix,optional"`
	TTL       string `hcl:"ttl,optional"`
}

type engineBlock struct {
	MaxCascadeDepth int `hcl:"max_cascade_depth,optional"`
	PersistQueue    int `hcl:"persist_queue,optional"`
	PersistRetries  int `hcl:"persist_retries,optional"`
}

type seedBlock struct {
	SessionID   string             `hcl:"session,label"`
	Nodes       []*nodeBlock       `hcl:"node,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
}

type nodeBlock struct {
	ID       string         `hcl:"id,label"`
	Kind     string         `hcl:"kind"`
	X        float64        `hcl:"x,optional"`
	Y        float64        `hcl:"y,optional"`
	Settings hcl.Expression `hcl:"settings,optional"`
}

type connectionBlock struct {
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}
