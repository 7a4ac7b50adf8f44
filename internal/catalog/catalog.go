// Package catalog maintains a local SQLite index of pseudopotential
// files: the header metadata worth searching on (element, valence
// charge, functional, mesh size) keyed by the content checksum, so a
// directory of UPF files can be queried without re-parsing them.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/upfkit/core/sqlite"
	"github.com/FocuswithJustin/upfkit/core/upf"
)

const schema = `
CREATE TABLE IF NOT EXISTS pseudopotentials (
	id         TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	element    TEXT,
	z_valence  REAL,
	functional TEXT,
	mesh_size  INTEGER,
	version    TEXT NOT NULL,
	checksum   TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_pseudopotentials_element ON pseudopotentials(element);
`

// Entry is one catalogued pseudopotential.
type Entry struct {
	ID         string
	Path       string
	Element    string
	ZValence   float64
	Functional string
	MeshSize   int64
	Version    string
	Checksum   string
}

// Catalog is an open catalog database.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog at path.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// OpenReadOnly opens an existing catalog for queries only. The schema is
// not applied, so the database file must already exist.
func OpenReadOnly(path string) (*Catalog, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog read-only: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add indexes one parsed document. Re-adding a file with unchanged
// content (same checksum) updates its path instead of duplicating it.
func (c *Catalog) Add(ctx context.Context, doc *upf.Document) (*Entry, error) {
	entry := &Entry{
		ID:       uuid.NewString(),
		Path:     doc.Filename(),
		Version:  doc.Version(),
		Checksum: doc.Checksum(),
	}
	if header, err := doc.Header(); err == nil {
		if v, ok := header.Get("element"); ok {
			entry.Element, _ = v.AsString()
		}
		if v, ok := header.Get("z_valence"); ok {
			entry.ZValence, _ = v.AsFloat()
		}
		if v, ok := header.Get("functional"); ok {
			entry.Functional, _ = v.AsString()
		}
		if v, ok := header.Get("mesh_size"); ok {
			entry.MeshSize, _ = v.AsInt()
		}
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pseudopotentials
			(id, path, element, z_valence, functional, mesh_size, version, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(checksum) DO UPDATE SET path = excluded.path`,
		entry.ID, entry.Path, entry.Element, entry.ZValence,
		entry.Functional, entry.MeshSize, entry.Version, entry.Checksum)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", entry.Path, err)
	}
	return entry, nil
}

// List returns every catalogued entry, ordered by element then path.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	return c.query(ctx, `
		SELECT id, path, element, z_valence, functional, mesh_size, version, checksum
		FROM pseudopotentials ORDER BY element, path`)
}

// ByElement returns the entries for one element symbol.
func (c *Catalog) ByElement(ctx context.Context, element string) ([]Entry, error) {
	return c.query(ctx, `
		SELECT id, path, element, z_valence, functional, mesh_size, version, checksum
		FROM pseudopotentials WHERE element = ? ORDER BY path`, element)
}

func (c *Catalog) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Path, &e.Element, &e.ZValence,
			&e.Functional, &e.MeshSize, &e.Version, &e.Checksum); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
