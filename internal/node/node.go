package node

// Position is the on-canvas location of a node. It is UI metadata only and
// never participates in propagation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Spec describes a node to be created: the fields carried by an addNode
// event or a session snapshot.
type Spec struct {
	ID       string
	Kind     string
	Position Position
	// Meta holds any extra UI fields carried by the addNode event. They are
	// echoed back verbatim when clients bootstrap.
	Meta map[string]any
}

// Node is a single live widget in the graph.
type Node struct {
	// ID is the unique, stable identifier of the node.
	ID string
	// Kind selects the Runtime implementation.
	Kind string
	// Position is updated by moveNode events.
	Position Position
	// Meta holds extra UI fields from the addNode event.
	Meta map[string]any

	// Settings holds the client-driven configuration. It is persisted.
	Settings *Settings
	// View holds everything published on the node's settings channel,
	// client settings and runtime notifications alike. Late joiners
	// receive it on bootstrap. It is not persisted.
	View *Settings
}

// New creates a node from a spec with empty settings.
func New(spec Spec) *Node {
	meta := make(map[string]any, len(spec.Meta))
	for k, v := range spec.Meta {
		meta[k] = v
	}
	return &Node{
		ID:       spec.ID,
		Kind:     spec.Kind,
		Position: spec.Position,
		Meta:     meta,
		Settings: NewSettings(),
		View:     NewSettings(),
	}
}

// Spec returns the creation spec of the node at its current position.
func (n *Node) Spec() Spec {
	meta := make(map[string]any, len(n.Meta))
	for k, v := range n.Meta {
		meta[k] = v
	}
	return Spec{ID: n.ID, Kind: n.Kind, Position: n.Position, Meta: meta}
}
