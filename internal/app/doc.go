// Package app wires the widget engine into a running process: it loads the
// configuration, registers the node kinds, opens the session store, seeds
// it, and serves the real-time endpoint, the session HTTP routes and the
// health check until its context is cancelled.
package app
