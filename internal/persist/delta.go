package persist

import (
	"context"
	"maps"

	"github.com/vk/widgetgrid/internal/sessionstore"
)

// Delta is one pending Session Store write.
type Delta struct {
	Op      string
	Session string
	Apply   func(ctx context.Context, store sessionstore.Store) error
}

func AppendNode(session string, rec sessionstore.NodeRecord) Delta {
	rec.Meta = maps.Clone(rec.Meta)
	return Delta{Op: "append_node", Session: session, Apply: func(ctx context.Context, s sessionstore.Store) error {
		return s.AppendNode(ctx, session, rec)
	}}
}

func RemoveNode(session, nodeID string) Delta {
	return Delta{Op: "remove_node", Session: session, Apply: func(ctx context.Context, s sessionstore.Store) error {
		return s.RemoveNode(ctx, session, nodeID)
	}}
}

func AppendEdge(session string, e sessionstore.Edge) Delta {
	return Delta{Op: "append_edge", Session: session, Apply: func(ctx context.Context, s sessionstore.Store) error {
		return s.AppendEdge(ctx, session, e)
	}}
}

func RemoveEdge(session string, e sessionstore.Edge) Delta {
	return Delta{Op: "remove_edge", Session: session, Apply: func(ctx context.Context, s sessionstore.Store) error {
		return s.RemoveEdge(ctx, session, e)
	}}
}

func UpdateSettings(session, nodeID string, delta map[string]any) Delta {
	delta = maps.Clone(delta)
	return Delta{Op: "update_settings", Session: session, Apply: func(ctx context.Context, s sessionstore.Store) error {
		return s.UpdateSettings(ctx, session, nodeID, delta)
	}}
}

// Create stores an empty snapshot unless the session exists. Queued after
// other deltas of the same session it never discards them.
func Create(session string) Delta {
	return Delta{Op: "create", Session: session, Apply: func(ctx context.Context, s sessionstore.Store) error {
		_, err := s.Create(ctx, session)
		return err
	}}
}

// Put replaces a whole snapshot.
func Put(session string, snap *sessionstore.Snapshot) Delta {
	snap = snap.Clone()
	return Delta{Op: "put", Session: session, Apply: func(ctx context.Context, s sessionstore.Store) error {
		return s.Put(ctx, session, snap)
	}}
}
