// Package value defines the canonical representation of parsed UPF data.
//
// A parsed pseudopotential is a tree of Value nodes. Value is a closed
// variant: a typed scalar (int, float, bool, string), a flat numeric
// array, an insertion-ordered string-keyed map, or a list. Consumers
// switch on Kind rather than relying on runtime type inspection.
package value

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindInvalid is the zero Value.
	KindInvalid Kind = iota
	// KindInt is an integer scalar.
	KindInt
	// KindFloat is a floating-point scalar.
	KindFloat
	// KindBool is a boolean scalar.
	KindBool
	// KindString is a string scalar.
	KindString
	// KindArray is a flat homogeneous float array.
	KindArray
	// KindMap is a nested ordered mapping.
	KindMap
	// KindList is an ordered sequence of values.
	KindList
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is one node of a parsed document tree.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	arr  []float64
	m    *Map
	list []Value
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating-point Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Array returns a numeric-array Value. The slice is not copied.
func Array(v []float64) Value { return Value{kind: KindArray, arr: v} }

// MapValue returns a Value wrapping an ordered map.
func MapValue(m *Map) Value { return Value{kind: KindMap, m: m} }

// List returns a Value wrapping a sequence. The slice is not copied.
func List(v []Value) Value { return Value{kind: KindList, list: v} }

// Strings returns a List value whose elements are string scalars.
// The v1 decomposer stores raw content lines this way.
func Strings(lines []string) Value {
	list := make([]Value, len(lines))
	for i, l := range lines {
		list[i] = String(l)
	}
	return List(list)
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the invalid zero Value.
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// AsInt returns the integer scalar, if v holds one.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the scalar as a float. Integer scalars convert.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsBool returns the boolean scalar, if v holds one.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the string scalar, if v holds one.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsArray returns the numeric array, if v holds one.
func (v Value) AsArray() ([]float64, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsMap returns the nested map, if v holds one.
func (v Value) AsMap() (*Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// AsList returns the sequence, if v holds one.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// StringLines returns the elements of a list of string scalars.
// It fails if v is not a list or any element is not a string.
func (v Value) StringLines() ([]string, bool) {
	list, ok := v.AsList()
	if !ok {
		return nil, false
	}
	lines := make([]string, len(list))
	for i, el := range list {
		s, ok := el.AsString()
		if !ok {
			return nil, false
		}
		lines[i] = s
	}
	return lines, true
}

// Text renders a scalar Value as a plain string for serialization.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindString:
		return v.s
	default:
		return ""
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if v.arr[i] != other.arr[i] {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(other.m)
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// MarshalJSON renders the value as plain JSON. Maps keep insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(v.arr)
	case KindMap:
		return v.m.MarshalJSON()
	case KindList:
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// GoString aids debugging output in tests.
func (v Value) GoString() string {
	switch v.kind {
	case KindMap:
		var sb strings.Builder
		sb.WriteString("{")
		for i, k := range v.m.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			el, _ := v.m.Get(k)
			fmt.Fprintf(&sb, "%s: %#v", k, el)
		}
		sb.WriteString("}")
		return sb.String()
	case KindList:
		return fmt.Sprintf("%#v", v.list)
	case KindArray:
		return fmt.Sprintf("%v", v.arr)
	default:
		return v.Text()
	}
}
