package value

import (
	"strconv"
	"strings"
)

// Sanitise converts a raw string token to its natural typed Value.
// It attempts strict literal parsing (integer, then float, then boolean,
// then quoted string) and falls back to the original string unchanged.
// Parse failure is the expected non-literal case, never an error.
//
// Fortran-style logical literals "T" and "F", which appear throughout UPF
// headers, are recognized alongside "true" and "false".
func Sanitise(raw string) Value {
	token := strings.TrimSpace(raw)
	if token == "" {
		return String(raw)
	}

	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return Float(f)
	}

	switch token {
	case "true", "T":
		return Bool(true)
	case "false", "F":
		return Bool(false)
	}

	// Quoted string literal: unwrap one level of double quotes.
	if len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
		if s, err := strconv.Unquote(token); err == nil {
			return String(s)
		}
	}

	return String(raw)
}

// ParseFloats splits raw on whitespace and parses every token as a float.
// It returns false when any token fails to parse; callers treat that as
// the text-payload fallback, not an error.
func ParseFloats(raw string) ([]float64, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, false
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
