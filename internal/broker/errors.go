package broker

import (
	"github.com/vk/widgetgrid/internal/graph"
	"github.com/vk/widgetgrid/internal/nodestore"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/wire"
	"go.trai.ch/zerr"
)

// Rejection reasons. Test with errors.Is.
var (
	ErrUnknownKind       = registry.ErrUnknownKind
	ErrNotFound          = nodestore.ErrNotFound
	ErrAlreadyExists     = nodestore.ErrAlreadyExists
	ErrDanglingReference = graph.ErrDanglingReference
	ErrMalformedEvent    = wire.ErrMalformed

	// ErrChannelRace is returned for a message on the settings channel of a
	// node that has just been removed. It is dropped silently.
	ErrChannelRace = zerr.New("settings channel closed")

	// ErrUnknownChannel is returned for a message on a channel that was
	// never opened.
	ErrUnknownChannel = zerr.New("unknown channel")
)
