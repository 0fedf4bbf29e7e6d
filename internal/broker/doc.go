// Package broker is the Synchronization Broker: it owns the live graph state
// and turns inbound client messages into applied, logged, persisted and
// re-broadcast events.
//
// # Channels
//
// Every inbound message arrives on a named channel and is routed through a
// subscription registry (package channels):
//
//   - "widget-action" carries node topology events (addNode, removeNode,
//     removeNodes, moveNode) and the "init_request" / "replay_request"
//     sentinels.
//   - "connection-action" carries edge events (addConnection,
//     removeConnection, removeNodes) and "init_request".
//   - "widget-settings-<id>" exists exactly while node <id> is live. It
//     carries settings deltas and "init_request".
//   - "load-session" and "clear-session" drive session bootstrap and reset.
//
// # Consistency
//
// One global lock serializes "apply one event, then enqueue its broadcast".
// Cascades triggered by an event run to completion inside that lock, so no
// other event can observe a half-propagated graph. A rejected event is
// logged and neither applied nor broadcast.
//
// Broadcasts are queued to an ordered outbox drained by Run, so the caller
// never waits on client delivery. Session Store writes are queued to a
// persist.Writer and never run inside the lock.
//
// # Clients
//
// Each client moves Connected → Bootstrapping → Synchronized. Bootstrap
// happens on "init_request", "replay_request" or "load-session". A
// disconnect cancels the client's context, which stops an in-flight session
// rebuild between steps.
package broker
