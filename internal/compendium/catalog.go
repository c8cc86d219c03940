// Package compendium provides read-only lookups against the compendium
// catalog database.
package compendium

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNoCatalog indicates the catalog database file does not exist.
var ErrNoCatalog = errors.New("compendium database not found")

// Catalog is the lookup surface resolution needs. It is deliberately small
// so tests can substitute an in-memory fake.
type Catalog interface {
	// Exists reports whether the table contains the entry id.
	Exists(table, id string) bool
	// ExistsAnywhere reports whether any table contains the entry id.
	ExistsAnywhere(id string) bool
	// IDsForName returns the entry ids indexed under the lowercased name,
	// in stable order.
	IDsForName(lowerName string) []string
	// ScanByName scans a single table for entries whose display name
	// lowercases to lowerName.
	ScanByName(table, lowerName string) ([]string, error)
}

// catalogTables are the per-kind tables worth loading id sets from. The
// item-like kinds are split across their own tables even though the id
// mapping targets "items".
var catalogTables = []string{
	"powers", "feats", "classes", "races", "items",
	"paragon_paths", "epic_destinies", "themes", "rituals",
	"backgrounds", "deities", "companions",
	"implements", "armor", "weapons", "poisons",
}

// DB is a SQLite-backed catalog. Entry id sets and the name index are
// loaded into memory at open; resolution touches every distinct id once and
// the whole catalog is a few megabytes, so reading it up front beats a
// query per lookup.
type DB struct {
	db        *sql.DB
	ids       map[string]map[string]bool
	allIDs    map[string]bool
	nameIndex map[string][]string
}

// Open opens the catalog read-only and preloads its id sets and name index.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCatalog, path)
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open compendium database: %w", err)
	}

	c := &DB{
		db:        db,
		ids:       make(map[string]map[string]bool),
		allIDs:    make(map[string]bool),
		nameIndex: make(map[string][]string),
	}
	if err := c.load(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *DB) load() error {
	for _, table := range catalogTables {
		set, err := c.loadIDs(table)
		if err != nil {
			return err
		}
		c.ids[table] = set
		for id := range set {
			c.allIDs[id] = true
		}
	}
	rows, err := c.db.Query("SELECT name_lower, entry_id FROM name_index ORDER BY name_lower, entry_id")
	if err != nil {
		return fmt.Errorf("failed to read name index: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return err
		}
		c.nameIndex[name] = append(c.nameIndex[name], id)
	}
	return rows.Err()
}

// loadIDs reads the id column of one table. A missing table is an empty
// set; catalog builds differ in which kinds they include.
func (c *DB) loadIDs(table string) (map[string]bool, error) {
	set := make(map[string]bool)
	rows, err := c.db.Query(fmt.Sprintf(`SELECT id FROM "%s"`, table))
	if err != nil {
		if isMissingTable(err) {
			return set, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, rows.Err()
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// Close closes the underlying database.
func (c *DB) Close() error {
	return c.db.Close()
}

// Exists reports whether the table contains the entry id.
func (c *DB) Exists(table, id string) bool {
	return c.ids[table][id]
}

// ExistsAnywhere reports whether any loaded table contains the entry id.
func (c *DB) ExistsAnywhere(id string) bool {
	return c.allIDs[id]
}

// IDsForName returns the entry ids indexed under the lowercased name.
func (c *DB) IDsForName(lowerName string) []string {
	return c.nameIndex[lowerName]
}

// ScanByName scans one table for entries whose name lowercases to
// lowerName. The name index only carries head names for some compound
// entries, so this is the fallback for full-name matches.
func (c *DB) ScanByName(table, lowerName string) ([]string, error) {
	rows, err := c.db.Query(
		fmt.Sprintf(`SELECT id FROM "%s" WHERE LOWER(name) = ? ORDER BY id`, table),
		lowerName,
	)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan %s: %w", table, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
