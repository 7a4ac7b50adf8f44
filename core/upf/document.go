// Package upf provides the canonical in-memory representation of a UPF
// pseudopotential file, constructed from either on-disk schema (the
// legacy tagged-text v1 format or the XML v2+ format) and able to render
// the derived formats downstream tools consume.
package upf

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/upfkit/core/upfv1"
	"github.com/FocuswithJustin/upfkit/core/upfv2"
	"github.com/FocuswithJustin/upfkit/core/value"
	"github.com/FocuswithJustin/upfkit/internal/fileutil"
	"github.com/FocuswithJustin/upfkit/internal/logging"
)

// versionRE matches the version declaration of a v2+ file. v1 files have
// no declaration at all.
var versionRE = regexp.MustCompile(`\s*<UPF\s+version\s*="([^"]*)">`)

// DefaultVersion is assumed when a file carries no version declaration.
const DefaultVersion = "1.0.0"

// Document is a parsed pseudopotential: the canonical ordered mapping of
// its decomposed blocks plus the format version and source identity.
// It is a plain in-memory value with no internal synchronization; callers
// must not mutate it concurrently.
type Document struct {
	filename string
	version  string
	checksum string
	fields   *value.Map
}

// FromString parses the contents of a UPF file. The format version is
// sniffed from the version declaration and dispatches to the v1 or v2
// decomposer; a missing declaration logs a warning and assumes v1.
func FromString(contents string) (*Document, error) {
	version := sniffVersion(contents)

	var fields *value.Map
	var err error
	if versionMajor(version) >= 2 {
		fields, err = upfv2.Parse(contents)
	} else {
		fields, err = upfv1.Parse(contents)
	}
	if err != nil {
		return nil, err
	}

	sum := blake3.Sum256([]byte(contents))
	return &Document{
		version:  version,
		checksum: hex.EncodeToString(sum[:]),
		fields:   fields,
	}, nil
}

// FromFile reads and parses a UPF file (.xz and .gz compressed files are
// decompressed transparently).
func FromFile(path string) (*Document, error) {
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := FromString(string(data))
	if err != nil {
		return nil, err
	}
	doc.filename = path
	return doc, nil
}

// sniffVersion extracts the declared UPF version, defaulting to v1.
func sniffVersion(contents string) string {
	if m := versionRE.FindStringSubmatch(contents); m != nil {
		return m[1]
	}
	logging.Warn("could not determine the UPF version, assuming v1.0.0")
	return DefaultVersion
}

// versionMajor parses the leading component of a version string. Version
// strings in the wild are not all semver ("2.0.1", "2.1", plain "2").
func versionMajor(version string) int {
	head := version
	if i := strings.IndexByte(head, '.'); i >= 0 {
		head = head[:i]
	}
	major, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0
	}
	return major
}

// Filename returns the source path, empty for string-constructed documents.
func (d *Document) Filename() string { return d.filename }

// Version returns the UPF format version.
func (d *Document) Version() string { return d.version }

// Checksum returns the BLAKE3 hex digest of the source text.
func (d *Document) Checksum() string { return d.checksum }

// Fields returns the canonical ordered mapping of the document's blocks.
// The map is shared, not copied; it may be mutated in place.
func (d *Document) Fields() *value.Map { return d.fields }

// Equal reports whether two documents hold the same decomposed content.
// Source identity (filename) and version are not compared.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.fields.Equal(other.fields)
}
