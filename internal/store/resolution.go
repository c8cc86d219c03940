package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// Occurrence counts how often one xml id is referenced by the edge tables.
type Occurrence struct {
	AsGranter int
	AsGranted int
	InStatAdd int
	InModify  int
}

// Total is the overall reference count.
func (o Occurrence) Total() int {
	return o.AsGranter + o.AsGranted + o.InStatAdd + o.InModify
}

// LogEntry is one _id_resolution_log row.
type LogEntry struct {
	XMLID            string
	AttemptedID      string
	ResolvedID       string
	Table            string
	Status           string
	Method           string
	MatchedVariant   string
	UnmappableReason string
	Occ              Occurrence
}

// Occurrences aggregates every distinct xml id referenced by the edge
// tables, granter and granted sides, with per-table counts.
func (s *Store) Occurrences() (map[string]Occurrence, error) {
	occ := make(map[string]Occurrence)

	rows, err := s.db.Query("SELECT granter_xml_id, granted_xml_id FROM grants")
	if err != nil {
		return nil, fmt.Errorf("failed to read grants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var granter, granted string
		if err := rows.Scan(&granter, &granted); err != nil {
			return nil, err
		}
		o := occ[granter]
		o.AsGranter++
		occ[granter] = o
		o = occ[granted]
		o.AsGranted++
		occ[granted] = o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, q := range []struct {
		table string
		bump  func(*Occurrence)
	}{
		{"stat_additions", func(o *Occurrence) { o.InStatAdd++ }},
		{"modifies", func(o *Occurrence) { o.InModify++ }},
	} {
		rows, err := s.db.Query("SELECT granter_xml_id FROM " + q.table)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", q.table, err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			o := occ[id]
			q.bump(&o)
			occ[id] = o
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return occ, nil
}

// DisplayNames maps xml ids to the denormalized display names carried on
// the edge tables, for the name-search fallback.
func (s *Store) DisplayNames() (map[string]string, error) {
	names := make(map[string]string)

	rows, err := s.db.Query(`
		SELECT granter_xml_id, granter_name, granted_xml_id, granted_name
		FROM grants`)
	if err != nil {
		return nil, fmt.Errorf("failed to read grant names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var granterID string
		var granterName sql.NullString
		var grantedID string
		var grantedName sql.NullString
		if err := rows.Scan(&granterID, &granterName, &grantedID, &grantedName); err != nil {
			return nil, err
		}
		if granterName.Valid && granterName.String != "" {
			names[granterID] = granterName.String
		}
		if grantedName.Valid && grantedName.String != "" {
			names[grantedID] = grantedName.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, table := range []string{"stat_additions", "modifies"} {
		rows, err := s.db.Query(
			"SELECT granter_xml_id, granter_name FROM " + table)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s names: %w", table, err)
		}
		for rows.Next() {
			var id string
			var name sql.NullString
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return nil, err
			}
			if name.Valid && name.String != "" {
				names[id] = name.String
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return names, nil
}

// ApplyResolution writes one resolve run atomically: the rebuilt resolution
// log, the manual-mapping mirror, and the compendium-id fills on every edge
// row referencing a resolved id.
func (s *Store) ApplyResolution(entries []LogEntry, manual map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin resolution: %w", err)
	}

	for _, table := range []string{"_id_resolution_log", "manual_mappings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insLog, err := tx.Prepare(`INSERT INTO _id_resolution_log (
		xml_id, attempted_compendium_id, resolved_compendium_id,
		compendium_table, status, resolution_method, matched_variant,
		unmappable_reason, occurrence_count,
		as_granter_in_grants, as_granted_in_grants, in_statadd_count, in_modify_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare log insert: %w", err)
	}
	for _, e := range entries {
		if _, err := insLog.Exec(
			e.XMLID, nullable(e.AttemptedID), nullable(e.ResolvedID),
			nullable(e.Table), e.Status, nullable(e.Method),
			nullable(e.MatchedVariant), nullable(e.UnmappableReason),
			e.Occ.Total(), e.Occ.AsGranter, e.Occ.AsGranted,
			e.Occ.InStatAdd, e.Occ.InModify,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to log %s: %w", e.XMLID, err)
		}
	}

	insManual, err := tx.Prepare(
		"INSERT INTO manual_mappings (xml_id, compendium_id) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	manualIDs := make([]string, 0, len(manual))
	for id := range manual {
		manualIDs = append(manualIDs, id)
	}
	sort.Strings(manualIDs)
	for _, id := range manualIDs {
		if _, err := insManual.Exec(id, manual[id]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to mirror manual mapping %s: %w", id, err)
		}
	}

	fills := []string{
		"UPDATE grants SET granter_compendium_id = ? WHERE granter_xml_id = ?",
		"UPDATE grants SET granted_compendium_id = ? WHERE granted_xml_id = ?",
		"UPDATE stat_additions SET granter_compendium_id = ? WHERE granter_xml_id = ?",
		"UPDATE modifies SET granter_compendium_id = ? WHERE granter_xml_id = ?",
	}
	fillStmts := make([]*sql.Stmt, len(fills))
	for i, f := range fills {
		fillStmts[i], err = tx.Prepare(f)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to prepare fill: %w", err)
		}
	}
	for _, e := range entries {
		if e.ResolvedID == "" {
			continue
		}
		for _, stmt := range fillStmts {
			if _, err := stmt.Exec(e.ResolvedID, e.XMLID); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to fill %s: %w", e.XMLID, err)
			}
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO _meta (key, value)
		VALUES ('resolved_at', datetime('now'))`); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolution: %w", err)
	}
	return nil
}

// ResolutionLog reads the full resolution log ordered by occurrence count
// descending, then xml id.
func (s *Store) ResolutionLog() ([]LogEntry, error) {
	return s.logEntries(`SELECT xml_id, attempted_compendium_id,
		resolved_compendium_id, compendium_table, status, resolution_method,
		matched_variant, unmappable_reason,
		as_granter_in_grants, as_granted_in_grants, in_statadd_count, in_modify_count
	FROM _id_resolution_log ORDER BY occurrence_count DESC, xml_id`)
}

// NotFound reads the not_found log entries ordered by occurrence count
// descending, for review export.
func (s *Store) NotFound() ([]LogEntry, error) {
	return s.logEntries(`SELECT xml_id, attempted_compendium_id,
		resolved_compendium_id, compendium_table, status, resolution_method,
		matched_variant, unmappable_reason,
		as_granter_in_grants, as_granted_in_grants, in_statadd_count, in_modify_count
	FROM _id_resolution_log WHERE status = 'not_found'
	ORDER BY occurrence_count DESC, xml_id`)
}

func (s *Store) logEntries(query string) ([]LogEntry, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to read resolution log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var attempted, resolved, table, method, variant, reason sql.NullString
		if err := rows.Scan(
			&e.XMLID, &attempted, &resolved, &table, &e.Status, &method,
			&variant, &reason,
			&e.Occ.AsGranter, &e.Occ.AsGranted, &e.Occ.InStatAdd, &e.Occ.InModify,
		); err != nil {
			return nil, err
		}
		e.AttemptedID = attempted.String
		e.ResolvedID = resolved.String
		e.Table = table.String
		e.Method = method.String
		e.MatchedVariant = variant.String
		e.UnmappableReason = reason.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// StatusCounts tallies resolution log rows by status.
func (s *Store) StatusCounts() (map[string]int, error) {
	rows, err := s.db.Query(
		"SELECT status, COUNT(*) FROM _id_resolution_log GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to tally statuses: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// TableCounts returns row counts for the generated tables.
func (s *Store) TableCounts() (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{
		"records", "specifics", "grants", "stat_additions", "modifies",
		"_id_resolution_log", "manual_mappings",
	} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
