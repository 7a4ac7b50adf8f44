// Package upfv1 parses the legacy (pre-2.0) UPF pseudopotential format.
//
// UPF v1 is a loosely-schematized tagged-text format: blocks delimited by
// `<PP_TAG>` / `</PP_TAG>` lines nest arbitrarily, and the payload of each
// block is free text whose meaning depends on the tag. The decomposer
// splits the document into a canonical nested mapping generically, then a
// fixed table of per-tag sanitisers normalizes the blocks with known
// structure (header, wavefunctions, projectors, the dij matrix, numeric
// arrays).
package upfv1

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/upfkit/core/errors"
	"github.com/FocuswithJustin/upfkit/core/value"
)

// formatName identifies this format in error messages.
const formatName = "UPF v1"

// Parse converts the full text of a legacy UPF file into the canonical
// nested mapping. Tag names are normalized by stripping the PP_ prefix
// and lower-casing; repeated sibling tags promote to lists in source
// order. An opening tag with no matching closing line is a FormatError.
func Parse(contents string) (*value.Map, error) {
	return blockToMap(strings.Split(contents, "\n"))
}

// blockToMap recursively decomposes the lines of one block interior.
func blockToMap(lines []string) (*value.Map, error) {
	dct := value.NewMap()

	// Non-blank lines preceding the first child tag are the block's own
	// free-text payload, kept verbatim for the sanitisers to pull apart.
	first := nextTagLine(lines, 0)
	limit := len(lines)
	if first >= 0 {
		limit = first
	}
	var text []string
	for _, l := range lines[:limit] {
		if strings.TrimSpace(l) != "" {
			text = append(text, l)
		}
	}
	if len(text) > 0 {
		dct.Set("content", value.Strings(text))
	}

	rest := lines
	i := first
	for i >= 0 {
		tag, ok := openTagName(rest[i])
		if !ok {
			// A closing line with no matching opener at this level.
			return nil, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("unexpected tag line %q", strings.TrimSpace(rest[i])),
			}
		}

		end := findClosing(rest, i, tag)
		if end < 0 {
			return nil, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("</%s> not found", tag),
			}
		}

		var interior []string
		if end > i {
			interior = rest[i+1 : end]
		}
		sub, err := blockToMap(interior)
		if err != nil {
			return nil, err
		}

		norm := normalizeTag(tag)
		val := value.MapValue(sub)
		if sanitise, ok := sanitisers[norm]; ok {
			val, err = sanitise(sub)
			if err != nil {
				return nil, err
			}
		}
		dct.Merge(norm, val)

		rest = rest[end+1:]
		i = nextTagLine(rest, 0)
	}

	return dct, nil
}

// nextTagLine returns the index of the first line at or after start whose
// trimmed form begins a tag, or -1 if none remain.
func nextTagLine(lines []string, start int) int {
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "<") {
			return i
		}
	}
	return -1
}

// findClosing locates the line closing tag, searching from the opening
// line onward by literal substring match.
func findClosing(lines []string, open int, tag string) int {
	needle := "</" + tag
	for i := open; i < len(lines); i++ {
		if strings.Contains(lines[i], needle) {
			return i
		}
	}
	return -1
}

// normalizeTag maps a raw tag name to its canonical document key.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(tag, "PP_"))
}
