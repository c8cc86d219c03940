// Package store owns the grants SQLite database: the relational output of
// the extract pass and the resolution state written by the resolve pass.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrCountMismatch indicates the rows written by an import do not equal the
// counts the scanner reported; the import is rolled back.
var ErrCountMismatch = errors.New("imported row counts do not match scan report")

// Store is the grants database handle.
type Store struct {
	db *sql.DB
}

// Open opens or creates the grants database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grants database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an in-memory store (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;

		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA cache_size = -64000;
		PRAGMA mmap_size = 268435456;

		CREATE TABLE IF NOT EXISTS _meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- One row per parsed top-level record.
		CREATE TABLE IF NOT EXISTS records (
			source_id TEXT PRIMARY KEY,
			name TEXT,
			type TEXT NOT NULL,
			source_book TEXT,
			revision_date TEXT,
			remainder_text TEXT
		);

		-- Key/value children in declaration order. Keys repeat; value is
		-- never NULL (a self-closing child is an empty string, absence of
		-- the key is absence of the row).
		CREATE TABLE IF NOT EXISTS specifics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			ordinal INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS grants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			granter_xml_id TEXT NOT NULL,
			granter_compendium_id TEXT,
			granter_type TEXT,
			granter_name TEXT,
			granted_xml_id TEXT NOT NULL,
			granted_compendium_id TEXT,
			granted_type TEXT,
			granted_name TEXT,
			requires TEXT,
			level TEXT,
			ordinal INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS stat_additions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			granter_xml_id TEXT NOT NULL,
			granter_compendium_id TEXT,
			granter_type TEXT,
			granter_name TEXT,
			stat_name TEXT NOT NULL,
			value TEXT NOT NULL,
			bonus_type TEXT,
			requires TEXT,
			ordinal INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS modifies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			granter_xml_id TEXT NOT NULL,
			granter_compendium_id TEXT,
			granter_type TEXT,
			granter_name TEXT,
			target_name TEXT NOT NULL,
			target_type TEXT,
			field TEXT NOT NULL,
			value TEXT,
			list_addition TEXT,
			requires TEXT,
			ordinal INTEGER NOT NULL
		);

		-- One row per distinct xml id referenced by the edge tables,
		-- rebuilt by each resolve run.
		CREATE TABLE IF NOT EXISTS _id_resolution_log (
			xml_id TEXT NOT NULL,
			attempted_compendium_id TEXT,
			resolved_compendium_id TEXT,
			compendium_table TEXT,
			status TEXT NOT NULL,
			resolution_method TEXT,
			matched_variant TEXT,
			unmappable_reason TEXT,
			occurrence_count INTEGER NOT NULL,
			as_granter_in_grants INTEGER DEFAULT 0,
			as_granted_in_grants INTEGER DEFAULT 0,
			in_statadd_count INTEGER DEFAULT 0,
			in_modify_count INTEGER DEFAULT 0
		);

		-- Mirror of the operator override list used by the last resolve run.
		CREATE TABLE IF NOT EXISTS manual_mappings (
			xml_id TEXT PRIMARY KEY,
			compendium_id TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_specifics_source ON specifics(source_id);
		CREATE INDEX IF NOT EXISTS idx_grants_granter ON grants(granter_xml_id);
		CREATE INDEX IF NOT EXISTS idx_grants_granted ON grants(granted_xml_id);
		CREATE INDEX IF NOT EXISTS idx_grants_granter_comp ON grants(granter_compendium_id);
		CREATE INDEX IF NOT EXISTS idx_grants_granted_comp ON grants(granted_compendium_id);
		CREATE INDEX IF NOT EXISTS idx_statadd_granter ON stat_additions(granter_xml_id);
		CREATE INDEX IF NOT EXISTS idx_modifies_granter ON modifies(granter_xml_id);
		CREATE INDEX IF NOT EXISTS idx_resolution_status ON _id_resolution_log(status);
		CREATE INDEX IF NOT EXISTS idx_resolution_xml_id ON _id_resolution_log(xml_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SetMeta writes a metadata key.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// Meta reads a metadata key; missing keys return "".
func (s *Store) Meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM _meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// nullable maps "" to NULL. Attribute absence and an explicitly empty
// attribute both mean "no value" on the edge tables.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
