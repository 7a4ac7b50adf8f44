// Package upfv2 parses the modern (2.0+) XML-based UPF pseudopotential
// format into the same canonical nested mapping the v1 decomposer
// produces, so downstream consumers never care which schema a file used.
package upfv2

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/upfkit/core/errors"
	"github.com/FocuswithJustin/upfkit/core/value"
	"github.com/FocuswithJustin/upfkit/core/xmlutil"
)

// bookkeepingAttrs are format metadata, not data: they describe how the
// element body is laid out on disk and are dropped during decomposition.
var bookkeepingAttrs = map[string]bool{
	"type":    true,
	"columns": true,
	"size":    true,
}

// Parse converts the contents of a UPF v2 file into the canonical nested
// mapping. The root element's own attributes (the version declaration)
// are not part of the document body and are omitted.
func Parse(contents string) (*value.Map, error) {
	doc, err := xmlutil.Parse([]byte(contents))
	if err != nil {
		return nil, &errors.FormatError{Format: "UPF v2", Detail: err.Error(), Err: err}
	}
	root := xmlutil.Root(doc)
	if root == nil {
		return nil, &errors.FormatError{Format: "UPF v2", Detail: "document has no root element"}
	}

	converted := elementToValue(root)
	dct, ok := converted.AsMap()
	if !ok {
		// A root holding nothing but text has no tagged blocks to offer.
		return nil, &errors.FormatError{Format: "UPF v2", Detail: "root element has no child blocks"}
	}
	dct.Delete("version")
	return dct, nil
}

// elementToValue recursively converts one element to its canonical value.
//
// Leaf elements become their sanitised attributes plus the body text; the
// body is parsed as a whitespace-separated float array when possible and
// kept as a raw trimmed string otherwise. When both attributes and a body
// are present the body nests under "content"; a bare body stands alone.
func elementToValue(n *xmlquery.Node) value.Value {
	result := value.NewMap()
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Name.Local)
		if bookkeepingAttrs[key] {
			continue
		}
		result.Set(key, value.Sanitise(attr.Value))
	}

	// Wavefunction elements written by some generators omit the principal
	// quantum number; it is recoverable from the label's first character.
	if strings.HasPrefix(n.Data, "PP_CHI") && !result.Has("n") {
		if label, ok := result.Get("label"); ok {
			if s, ok := label.AsString(); ok && len(s) > 0 {
				if derived := value.Sanitise(s[:1]); derived.Kind() == value.KindInt {
					result.Set("n", derived)
				}
			}
		}
	}

	children := xmlutil.ElementChildren(n)
	if len(children) == 0 {
		text := strings.TrimSpace(n.InnerText())
		if text == "" {
			return value.MapValue(result)
		}
		var body value.Value
		if arr, ok := value.ParseFloats(text); ok {
			body = value.Array(arr)
		} else {
			body = value.String(text)
		}
		if result.Len() > 0 {
			result.Set("content", body)
			return value.MapValue(result)
		}
		return body
	}

	for _, child := range children {
		tag := normalizeTag(child.Data)
		childValue := elementToValue(child)
		if tag == "chi" {
			// Wavefunctions are conceptually a collection even when a
			// file carries a single one.
			result.Append(tag, childValue)
		} else {
			result.Merge(tag, childValue)
		}
	}

	return value.MapValue(result)
}

// normalizeTag maps a raw element name to its canonical document key:
// the PP_ prefix is stripped, any .N suffix used for sibling uniqueness
// is dropped, and the remainder is lower-cased.
func normalizeTag(tag string) string {
	if i := strings.Index(tag, "."); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(strings.TrimPrefix(tag, "PP_"))
}
