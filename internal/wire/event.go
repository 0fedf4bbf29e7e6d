package wire

import (
	"maps"

	"go.trai.ch/zerr"
)

// Topology event types.
const (
	TypeAddNode          = "addNode"
	TypeRemoveNode       = "removeNode"
	TypeRemoveNodes      = "removeNodes"
	TypeMoveNode         = "moveNode"
	TypeAddConnection    = "addConnection"
	TypeRemoveConnection = "removeConnection"
	TypeInit             = "init"
	TypeAck              = "ack"
)

// Field names used in generated payloads.
const (
	FieldType      = "type"
	FieldID        = "id"
	FieldKind      = "kind"
	FieldIDs       = "ids"
	FieldSource    = "source"
	FieldTarget    = "target"
	FieldX         = "x"
	FieldY         = "y"
	FieldSettings  = "settings"
	FieldSessionID = "sessionId"
)

var typeAliases = map[string]string{
	"addWidget":     TypeAddNode,
	"removeWidget":  TypeRemoveNode,
	"removeWidgets": TypeRemoveNodes,
	"moveWidget":    TypeMoveNode,
}

// fieldAliases lists accepted names per field, preferred name first.
var fieldAliases = map[string][]string{
	FieldID:     {FieldID, "widgetId"},
	FieldKind:   {FieldKind, "widgetType"},
	FieldIDs:    {FieldIDs, "selection"},
	FieldSource: {FieldSource, "sourceId"},
	FieldTarget: {FieldTarget, "targetId"},
}

// Event is a decoded topology event.
type Event struct {
	Type      string
	ID        string
	Kind      string
	IDs       []string
	Source    string
	Target    string
	Settings  map[string]any
	SessionID string

	X, Y float64
	// HasX and HasY report which coordinates the payload carried. HasPos
	// is set when either is present.
	HasX, HasY bool
	HasPos     bool

	// Fields holds the payload as sent, minus sessionId.
	Fields map[string]any
}

// Meta returns the fields of an addNode event that the engine does not
// interpret. They are echoed back when clients bootstrap.
func (e *Event) Meta() map[string]any {
	meta := maps.Clone(e.Fields)
	delete(meta, FieldType)
	delete(meta, FieldX)
	delete(meta, FieldY)
	delete(meta, FieldSettings)
	for _, names := range fieldAliases {
		for _, n := range names {
			delete(meta, n)
		}
	}
	return meta
}

// Decode parses and validates a topology event.
func Decode(payload []byte) (*Event, error) {
	m, err := DecodeObject(payload)
	if err != nil {
		return nil, err
	}

	e := &Event{}
	e.SessionID, _ = m[FieldSessionID].(string)
	delete(m, FieldSessionID)
	e.Fields = m

	t, _ := m[FieldType].(string)
	if canonical, ok := typeAliases[t]; ok {
		t = canonical
	}
	e.Type = t

	e.ID = stringField(m, FieldID)
	e.Kind = stringField(m, FieldKind)
	e.Source = stringField(m, FieldSource)
	e.Target = stringField(m, FieldTarget)
	e.IDs = stringsField(m, FieldIDs)
	if s, ok := m[FieldSettings].(map[string]any); ok {
		e.Settings = s
	}
	x, hasX := m[FieldX].(float64)
	y, hasY := m[FieldY].(float64)
	e.X, e.Y = x, y
	e.HasX, e.HasY, e.HasPos = hasX, hasY, hasX || hasY

	switch e.Type {
	case TypeAddNode:
		if e.ID == "" || e.Kind == "" {
			return nil, malformed(e.Type, "id and kind are required")
		}
	case TypeRemoveNode:
		if e.ID == "" {
			return nil, malformed(e.Type, "id is required")
		}
	case TypeRemoveNodes:
		if e.IDs == nil {
			return nil, malformed(e.Type, "ids are required")
		}
	case TypeMoveNode:
		if e.ID == "" || !e.HasPos {
			return nil, malformed(e.Type, "id and position are required")
		}
	case TypeAddConnection, TypeRemoveConnection:
		if e.Source == "" || e.Target == "" {
			return nil, malformed(e.Type, "source and target are required")
		}
	case "":
		return nil, zerr.Wrap(ErrMalformed, "missing type")
	default:
		return nil, malformed(e.Type, "unknown type")
	}
	return e, nil
}

func malformed(eventType, reason string) error {
	return zerr.With(zerr.Wrap(ErrMalformed, reason), "type", eventType)
}

func stringField(m map[string]any, field string) string {
	for _, name := range fieldAliases[field] {
		if s, ok := m[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringsField(m map[string]any, field string) []string {
	for _, name := range fieldAliases[field] {
		raw, ok := m[name].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
