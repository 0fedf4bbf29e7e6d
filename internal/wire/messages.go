package wire

import "maps"

// NodeEntry is the bootstrap description of a live node.
type NodeEntry struct {
	ID   string
	Kind string
	X, Y float64
	Meta map[string]any
}

// Object renders the entry as the fields of an addNode event without the
// type discriminator. Meta never overrides the engine-owned fields.
func (n NodeEntry) Object() map[string]any {
	m := make(map[string]any, len(n.Meta)+4)
	maps.Copy(m, n.Meta)
	m[FieldID] = n.ID
	m[FieldKind] = n.Kind
	m[FieldX] = n.X
	m[FieldY] = n.Y
	return m
}

// AddNode builds the addNode event that recreates n.
func AddNode(n NodeEntry) []byte {
	m := n.Object()
	m[FieldType] = TypeAddNode
	return MustMarshal(m)
}

// AddConnection builds an addConnection event.
func AddConnection(source, target string) []byte {
	return MustMarshal(map[string]any{
		FieldType:   TypeAddConnection,
		FieldSource: source,
		FieldTarget: target,
	})
}

// NodesInit builds the node bootstrap message.
func NodesInit(nodes []NodeEntry) []byte {
	list := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		list = append(list, n.Object())
	}
	return MustMarshal(map[string]any{FieldType: TypeInit, "nodes": list})
}

// EdgesInit builds the edge bootstrap message.
func EdgesInit(edges [][2]string) []byte {
	if edges == nil {
		edges = [][2]string{}
	}
	return MustMarshal(map[string]any{FieldType: TypeInit, "connections": edges})
}

// Ack is the reply to a load-session request.
type Ack struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionId"`
	Created     bool   `json:"created"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
}

// NewAck builds an ack message.
func NewAck(sessionID string, created bool, nodes, connections int) []byte {
	return MustMarshal(Ack{Type: TypeAck, SessionID: sessionID, Created: created, Nodes: nodes, Connections: connections})
}

// LoadSession is the request on the load-session channel.
type LoadSession struct {
	SessionID string `json:"sessionId"`
}

// DecodeLoadSession parses a load-session request.
func DecodeLoadSession(payload []byte) (LoadSession, error) {
	m, err := DecodeObject(payload)
	if err != nil {
		return LoadSession{}, err
	}
	id, _ := m[FieldSessionID].(string)
	if id == "" {
		return LoadSession{}, malformed("loadSession", "sessionId is required")
	}
	return LoadSession{SessionID: id}, nil
}
