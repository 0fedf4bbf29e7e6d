package testutil

import "github.com/vk/widgetgrid/internal/node"

// Call is one recorded runtime callback.
type Call struct {
	Node   string
	Method string
	Value  node.Value
}

// Message is one payload handed to a Transport. To is empty for broadcasts.
type Message struct {
	To      string
	Channel string
	Payload string
}
