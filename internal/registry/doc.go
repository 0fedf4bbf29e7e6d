// Package registry provides the central "glue" for the node-kind system.
//
// The Registry maps the kind names used on the wire (e.g., "Data Set") to the
// compiled Go constructors that build each node's Runtime. Node-kind packages
// plug in by implementing Module. Construction of an unregistered kind fails
// explicitly with ErrUnknownKind; there is no fallback lookup.
//
// During application startup, the registry is populated and then used to
// validate configured session seeds, so a seed referencing a kind that the
// binary does not ship is caught before the server accepts connections.
package registry
