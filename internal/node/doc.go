// Package node defines the widget data model shared by every part of the
// engine: the Node itself, its ordered Settings map, and the Runtime/Host
// contract that pluggable node kinds implement and call back through.
package node
