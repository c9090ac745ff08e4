package pipeline

import (
	"iter"
	"maps"
	"slices"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Map is a string keyed mapping that keeps insertion order when encoded as YAML.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Set stores value under key. An existing key keeps its position.
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// All yields the entries in insertion order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Merge sets every entry of override on top of m.
// Keys are visited in sorted order so the result does not depend on map iteration.
func (m *Map) Merge(override map[string]any) {
	for _, k := range sortedKeys(override) {
		m.Set(k, override[k])
	}
}

// MarshalYAML implements yaml.Marshaler.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range m.All() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		value := &yaml.Node{}
		if err := value.Encode(v); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to encode document entry"), "key", k)
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
