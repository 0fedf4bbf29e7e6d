// Package wire defines the JSON payloads exchanged with clients: channel
// names, the two sentinel strings, topology events with their accepted
// field aliases, and the messages the server generates itself.
package wire

import (
	"bytes"
	"strings"

	"github.com/bytedance/sonic"
	"go.trai.ch/zerr"
)

// Channel names.
const (
	NodesChannel        = "widget-action"
	EdgesChannel        = "connection-action"
	SettingsPrefix      = "widget-settings-"
	LoadSessionChannel  = "load-session"
	ClearSessionChannel = "clear-session"
)

// Sentinel messages.
const (
	InitRequest   = "init_request"
	ReplayRequest = "replay_request"
)

// ErrMalformed is returned for payloads that cannot be decoded or miss a
// required field.
var ErrMalformed = zerr.New("malformed event")

// SettingsChannel returns the settings channel name of a node.
func SettingsChannel(nodeID string) string {
	return SettingsPrefix + nodeID
}

// NodeOf returns the node id addressed by a settings channel name.
func NodeOf(channel string) (string, bool) {
	id, ok := strings.CutPrefix(channel, SettingsPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Sentinel reports which sentinel a payload carries, if any. Both the bare
// string and its JSON-quoted form are recognized.
func Sentinel(payload []byte) (string, bool) {
	p := bytes.TrimSpace(payload)
	if len(p) > 1 && p[0] == '"' {
		var s string
		if err := sonic.ConfigStd.Unmarshal(p, &s); err == nil {
			p = []byte(s)
		}
	}
	switch string(p) {
	case InitRequest:
		return InitRequest, true
	case ReplayRequest:
		return ReplayRequest, true
	}
	return "", false
}

// Normalize turns a transport argument into raw JSON text. Strings and byte
// slices are taken as already encoded; anything else is marshalled.
func Normalize(arg any) ([]byte, error) {
	switch v := arg.(type) {
	case nil:
		return nil, zerr.Wrap(ErrMalformed, "empty payload")
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		b, err := sonic.ConfigStd.Marshal(v)
		if err != nil {
			return nil, zerr.Wrap(ErrMalformed, err.Error())
		}
		return b, nil
	}
}

// Marshal encodes v with the wire codec.
func Marshal(v any) ([]byte, error) {
	return sonic.ConfigStd.Marshal(v)
}

// Unmarshal decodes data into v with the wire codec.
func Unmarshal(data []byte, v any) error {
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return zerr.With(zerr.Wrap(ErrMalformed, "invalid json"), "reason", err.Error())
	}
	return nil
}

// MustMarshal encodes values built by this package, which never fail.
func MustMarshal(v any) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// DecodeObject parses a JSON object payload.
func DecodeObject(payload []byte) (map[string]any, error) {
	var m map[string]any
	if err := sonic.ConfigStd.Unmarshal(payload, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(ErrMalformed, "invalid json"), "reason", err.Error())
	}
	if m == nil {
		return nil, zerr.Wrap(ErrMalformed, "payload is not an object")
	}
	return m, nil
}

// DecodeSettings parses a settings message and splits off its sessionId.
func DecodeSettings(payload []byte) (delta map[string]any, sessionID string, err error) {
	delta, err = DecodeObject(payload)
	if err != nil {
		return nil, "", err
	}
	sessionID, _ = delta[FieldSessionID].(string)
	delete(delta, FieldSessionID)
	return delta, sessionID, nil
}
