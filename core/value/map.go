package value

import (
	"bytes"
	"encoding/json"
)

// Map is a string-keyed mapping that preserves insertion order.
// Key order at each nesting level follows first-seen order in the source
// document; nothing is ever re-sorted.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. The slice is shared; callers
// must not modify it.
func (m *Map) Keys() []string { return m.keys }

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores v under key, appending the key if it is new.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key, preserving the order of the remaining entries.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Merge stores v under key with the collision rule of the UPF canonical
// document: the first occurrence of a tag is stored bare, and any repeat
// promotes the entry to a list holding every occurrence in source order.
func (m *Map) Merge(key string, v Value) {
	existing, ok := m.values[key]
	if !ok {
		m.Set(key, v)
		return
	}
	list, isList := existing.AsList()
	if !isList {
		list = []Value{existing}
	}
	m.values[key] = List(append(list, v))
}

// Append stores v under key as a list entry even when key is new. Tags
// that are conceptually collections (wavefunctions) use this so a single
// occurrence still parses as a one-element sequence.
func (m *Map) Append(key string, v Value) {
	existing, ok := m.values[key]
	if !ok {
		m.Set(key, List([]Value{v}))
		return
	}
	list, isList := existing.AsList()
	if !isList {
		list = []Value{existing}
	}
	m.values[key] = List(append(list, v))
}

// Equal reports deep equality irrespective of key order.
func (m *Map) Equal(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.keys) != len(other.keys) {
		return false
	}
	for k, v := range m.values {
		ov, ok := other.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the map as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := m.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
