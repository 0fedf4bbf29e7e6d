// Package inmemorystore provides a thread-safe, in-memory implementation of
// the nodestore.Store interface.
//
// # Characteristics
//
//   - **Ephemeral:** Lives as long as the process; durable state belongs to the session store
//   - **Ordered:** Handles are returned in creation order so bootstrap output is deterministic
//   - **Thread-Safe:** One RWMutex guards the map and the order slice
//
// # When to Use
//
// This is the only node store the engine needs: one process is the sole
// authority for a session's live graph, so live nodes never leave memory.
package inmemorystore
