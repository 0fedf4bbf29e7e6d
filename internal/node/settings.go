package node

import (
	"bytes"
	"slices"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
)

// Settings is an ordered mapping of string keys to JSON-like values.
//
// Keys keep the order in which they were first inserted. Within a single
// Merge call new keys are inserted in lexical order, so the result does not
// depend on Go map iteration order. A nil value is a value, not a deletion.
type Settings struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]any
}

// NewSettings returns an empty settings map.
func NewSettings() *Settings {
	return &Settings{values: make(map[string]any)}
}

// SettingsFrom builds a settings map from a plain map.
func SettingsFrom(m map[string]any) *Settings {
	s := NewSettings()
	s.Merge(m)
	return s
}

// Merge applies a delta, overwriting existing keys.
func (s *Settings) Merge(delta map[string]any) {
	if len(delta) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range sortedKeys(delta) {
		if _, ok := s.values[k]; !ok {
			s.keys = append(s.keys, k)
		}
		s.values[k] = delta[k]
	}
}

// Get returns the value stored under key.
func (s *Settings) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key if it is a non-empty string.
func (s *Settings) String(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Len returns the number of keys.
func (s *Settings) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *Settings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.keys)
}

// Map returns a shallow copy as a plain map.
func (s *Settings) Map() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Reset removes every key.
func (s *Settings) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = nil
	s.values = make(map[string]any)
}

// MarshalJSON encodes the settings as a JSON object in key order.
func (s *Settings) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := sonic.ConfigStd.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := sonic.ConfigStd.Marshal(s.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
