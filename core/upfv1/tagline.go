package upfv1

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// tagLine represents one tag delimiter line of a legacy UPF file,
// e.g. `<PP_HEADER>` or `</PP_MESH>`. Attributes occasionally appear on
// opening lines in files written by newer generators; the legacy format
// carries no data in them, so they are recognized and discarded.
type tagLine struct {
	Close bool      `"<" @"/"?`
	Name  string    `@Ident`
	Attrs []tagAttr `@@* ">"?`
}

type tagAttr struct {
	Key   string `@Ident "="`
	Value string `@String`
}

// tagLexer defines tokens for tag delimiter lines.
var tagLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.]*`},
	{Name: "Punct", Pattern: `[<>/=]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// tagParser is the participle parser for tag delimiter lines.
var tagParser = participle.MustBuild[tagLine](
	participle.Lexer(tagLexer),
	participle.Elide("Whitespace"),
)

// openTagName extracts the tag name from an opening tag line. It returns
// false for lines that do not open a tag (including closing lines).
func openTagName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "<") {
		return "", false
	}
	parsed, err := tagParser.ParseString("", trimmed)
	if err == nil {
		if parsed.Close {
			return "", false
		}
		return parsed.Name, true
	}

	// Tolerate lines the grammar rejects (stray text after the closing
	// bracket, unquoted attributes): fall back to the first token between
	// the angle brackets, the way the legacy readers did.
	inner := strings.TrimPrefix(trimmed, "<")
	inner = strings.TrimSuffix(inner, ">")
	fields := strings.Fields(inner)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	return fields[0], true
}
