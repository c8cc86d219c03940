package store

import (
	"database/sql"
	"fmt"

	"github.com/aidanlsb/talon/internal/rules"
)

// ImportCounts are the per-table row counts of an import, compared against
// the scanner's report before commit.
type ImportCounts struct {
	Records   int
	Specifics int
	Grants    int
	StatAdds  int
	Modifies  int
}

// Import is one extract run: a single transaction with prepared inserts.
// The previous contents of every generated table are wiped when the import
// begins; rolling back restores them.
type Import struct {
	tx *sql.Tx

	insRecord   *sql.Stmt
	insSpecific *sql.Stmt
	insGrant    *sql.Stmt
	insStatAdd  *sql.Stmt
	insModify   *sql.Stmt

	counts ImportCounts
}

// BeginImport starts an import transaction and clears the generated tables.
func (s *Store) BeginImport() (*Import, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin import: %w", err)
	}

	for _, table := range []string{
		"records", "specifics", "grants", "stat_additions", "modifies",
		"_id_resolution_log", "manual_mappings",
	} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	// A fresh extract invalidates any previous resolution state.
	if _, err := tx.Exec("DELETE FROM _meta WHERE key = 'resolved_at'"); err != nil {
		tx.Rollback()
		return nil, err
	}

	im := &Import{tx: tx}
	stmts := []struct {
		dst **sql.Stmt
		sql string
	}{
		{&im.insRecord, `INSERT INTO records
			(source_id, name, type, source_book, revision_date, remainder_text)
			VALUES (?, ?, ?, ?, ?, ?)`},
		{&im.insSpecific, `INSERT INTO specifics
			(source_id, key, value, ordinal) VALUES (?, ?, ?, ?)`},
		{&im.insGrant, `INSERT INTO grants
			(granter_xml_id, granter_type, granter_name,
			 granted_xml_id, granted_type, requires, level, ordinal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&im.insStatAdd, `INSERT INTO stat_additions
			(granter_xml_id, granter_type, granter_name,
			 stat_name, value, bonus_type, requires, ordinal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&im.insModify, `INSERT INTO modifies
			(granter_xml_id, granter_type, granter_name,
			 target_name, target_type, field, value, list_addition, requires, ordinal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
	}
	for _, st := range stmts {
		prepared, err := tx.Prepare(st.sql)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to prepare import statement: %w", err)
		}
		*st.dst = prepared
	}
	return im, nil
}

// Add writes one record and its statements.
func (im *Import) Add(rec *rules.Record) error {
	if _, err := im.insRecord.Exec(
		rec.SourceID, nullable(rec.Name), rec.Type,
		nullable(rec.SourceBook), nullable(rec.RevisionDate),
		nullable(rec.RemainderText),
	); err != nil {
		return fmt.Errorf("failed to insert record %s: %w", rec.SourceID, err)
	}
	im.counts.Records++

	for _, sp := range rec.Specifics {
		if _, err := im.insSpecific.Exec(rec.SourceID, sp.Key, sp.Value, sp.Ordinal); err != nil {
			return fmt.Errorf("failed to insert specific for %s: %w", rec.SourceID, err)
		}
		im.counts.Specifics++
	}
	for _, g := range rec.Grants {
		if _, err := im.insGrant.Exec(
			rec.SourceID, nullable(rec.Type), nullable(rec.Name),
			g.Granted, nullable(g.GrantedType),
			nullable(g.Requires), nullable(g.Level), g.Ordinal,
		); err != nil {
			return fmt.Errorf("failed to insert grant for %s: %w", rec.SourceID, err)
		}
		im.counts.Grants++
	}
	for _, sa := range rec.StatAdds {
		if _, err := im.insStatAdd.Exec(
			rec.SourceID, nullable(rec.Type), nullable(rec.Name),
			sa.Stat, sa.Value, nullable(sa.BonusType),
			nullable(sa.Requires), sa.Ordinal,
		); err != nil {
			return fmt.Errorf("failed to insert stat addition for %s: %w", rec.SourceID, err)
		}
		im.counts.StatAdds++
	}
	for _, m := range rec.Modifies {
		if _, err := im.insModify.Exec(
			rec.SourceID, nullable(rec.Type), nullable(rec.Name),
			m.TargetName, nullable(m.TargetType), m.Field,
			nullable(m.Value), nullable(m.ListAddition),
			nullable(m.Requires), m.Ordinal,
		); err != nil {
			return fmt.Errorf("failed to insert modify for %s: %w", rec.SourceID, err)
		}
		im.counts.Modifies++
	}
	return nil
}

// Counts returns the rows written so far.
func (im *Import) Counts() ImportCounts {
	return im.counts
}

// Commit backfills the denormalized granted names, verifies the written
// rows against expected, and commits. A count mismatch rolls back and
// returns ErrCountMismatch.
func (im *Import) Commit(expected ImportCounts) error {
	// granted_name is denormalized off the records table; the granted
	// record may appear anywhere in the stream, so the fill happens after
	// every record is in.
	if _, err := im.tx.Exec(`
		UPDATE grants SET granted_name =
			(SELECT r.name FROM records r WHERE r.source_id = grants.granted_xml_id)
	`); err != nil {
		im.tx.Rollback()
		return fmt.Errorf("failed to fill granted names: %w", err)
	}

	written, err := im.tableCounts()
	if err != nil {
		im.tx.Rollback()
		return err
	}
	if written != expected || im.counts != expected {
		im.tx.Rollback()
		return fmt.Errorf("%w: wrote %+v, scan reported %+v",
			ErrCountMismatch, written, expected)
	}

	if err := im.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// Rollback abandons the import.
func (im *Import) Rollback() error {
	return im.tx.Rollback()
}

func (im *Import) tableCounts() (ImportCounts, error) {
	var c ImportCounts
	for _, q := range []struct {
		dst   *int
		table string
	}{
		{&c.Records, "records"},
		{&c.Specifics, "specifics"},
		{&c.Grants, "grants"},
		{&c.StatAdds, "stat_additions"},
		{&c.Modifies, "modifies"},
	} {
		if err := im.tx.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dst); err != nil {
			return c, fmt.Errorf("failed to count %s: %w", q.table, err)
		}
	}
	return c, nil
}
