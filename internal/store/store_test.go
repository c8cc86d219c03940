package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/aidanlsb/talon/internal/rules"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func importRecords(t *testing.T, s *Store, recs ...*rules.Record) {
	t.Helper()
	im, err := s.BeginImport()
	if err != nil {
		t.Fatalf("BeginImport: %v", err)
	}
	for _, rec := range recs {
		if err := im.Add(rec); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := im.Commit(im.Counts()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestImportRoundTrip(t *testing.T) {
	s := openTest(t)
	importRecords(t, s, &rules.Record{
		SourceID:      "ID_FMP_POWER_435",
		Name:          `Eldritch "Blast"`,
		Type:          "Power",
		SourceBook:    "Player's Handbook",
		RevisionDate:  "4/3/2012 4:11:54 PM",
		RemainderText: "You unleash it.",
		Specifics: []rules.Specific{
			{Key: "Power Usage", Value: "At-Will", Ordinal: 0},
			{Key: "Special", Value: "", Ordinal: 1},
		},
		Grants: []rules.Grant{
			{Granted: "ID_FMP_FEAT_7", GrantedType: "Feat", Requires: "Wis 13|Cha 13", Ordinal: 0},
		},
	})

	var name, book string
	err := s.DB().QueryRow(
		"SELECT name, source_book FROM records WHERE source_id = ?",
		"ID_FMP_POWER_435").Scan(&name, &book)
	if err != nil {
		t.Fatalf("query record: %v", err)
	}
	// Quoting in source text must survive parameter binding untouched.
	if name != `Eldritch "Blast"` || book != "Player's Handbook" {
		t.Errorf("record = %q / %q", name, book)
	}

	var requires string
	err = s.DB().QueryRow("SELECT requires FROM grants").Scan(&requires)
	if err != nil {
		t.Fatalf("query grant: %v", err)
	}
	if requires != "Wis 13|Cha 13" {
		t.Errorf("requires = %q", requires)
	}
}

func TestImportNullVersusEmpty(t *testing.T) {
	s := openTest(t)
	importRecords(t, s, &rules.Record{
		SourceID: "ID_1",
		Type:     "Power",
		Specifics: []rules.Specific{
			{Key: "Special", Value: "", Ordinal: 0},
		},
		Grants: []rules.Grant{
			{Granted: "ID_2", GrantedType: "Feat", Ordinal: 0},
		},
	})

	// A self-closing specific keeps an empty string, never NULL.
	var value sql.NullString
	if err := s.DB().QueryRow("SELECT value FROM specifics").Scan(&value); err != nil {
		t.Fatalf("query specific: %v", err)
	}
	if !value.Valid || value.String != "" {
		t.Errorf("specific value = %+v, want valid empty string", value)
	}

	// An absent requires attribute is NULL, never "" or "none".
	var requires sql.NullString
	if err := s.DB().QueryRow("SELECT requires FROM grants").Scan(&requires); err != nil {
		t.Fatalf("query grant: %v", err)
	}
	if requires.Valid {
		t.Errorf("requires = %q, want NULL", requires.String)
	}
}

func TestImportOrdinalsPreserveDeclarationOrder(t *testing.T) {
	s := openTest(t)
	importRecords(t, s, &rules.Record{
		SourceID: "ID_1",
		Type:     "Class",
		Grants: []rules.Grant{
			{Granted: "ID_2", GrantedType: "Power", Ordinal: 0},
			{Granted: "ID_4", GrantedType: "Feat", Ordinal: 2},
		},
		StatAdds: []rules.StatAdd{
			{Stat: "Will", Value: "+1", Ordinal: 1},
		},
	})

	rows, err := s.DB().Query(`
		SELECT granted_xml_id FROM grants WHERE granter_xml_id = 'ID_1'
		ORDER BY ordinal`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var got []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatal(err)
		}
		got = append(got, id)
	}
	if len(got) != 2 || got[0] != "ID_2" || got[1] != "ID_4" {
		t.Errorf("ordered grants = %v", got)
	}
}

func TestImportBackfillsGrantedNames(t *testing.T) {
	s := openTest(t)
	importRecords(t, s,
		&rules.Record{
			SourceID: "ID_FMP_CLASS_1", Name: "Cleric", Type: "Class",
			Grants: []rules.Grant{
				{Granted: "ID_FMP_POWER_10", GrantedType: "Power", Ordinal: 0},
				{Granted: "ID_FMP_NOWHERE_1", GrantedType: "Power", Ordinal: 1},
			},
		},
		&rules.Record{
			SourceID: "ID_FMP_POWER_10", Name: "Healing Word", Type: "Power",
		},
	)

	var name sql.NullString
	err := s.DB().QueryRow(
		"SELECT granted_name FROM grants WHERE granted_xml_id = 'ID_FMP_POWER_10'").Scan(&name)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if name.String != "Healing Word" {
		t.Errorf("granted_name = %q", name.String)
	}

	err = s.DB().QueryRow(
		"SELECT granted_name FROM grants WHERE granted_xml_id = 'ID_FMP_NOWHERE_1'").Scan(&name)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if name.Valid {
		t.Errorf("unknown grantee name = %q, want NULL", name.String)
	}
}

func TestImportCountMismatchRollsBack(t *testing.T) {
	s := openTest(t)
	importRecords(t, s, &rules.Record{SourceID: "ID_KEEP", Type: "Power"})

	im, err := s.BeginImport()
	if err != nil {
		t.Fatalf("BeginImport: %v", err)
	}
	if err := im.Add(&rules.Record{SourceID: "ID_NEW", Type: "Power"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	wrong := im.Counts()
	wrong.Grants++
	err = im.Commit(wrong)
	if !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("Commit error = %v, want ErrCountMismatch", err)
	}

	// The failed import must not have destroyed the previous contents.
	var id string
	if err := s.DB().QueryRow("SELECT source_id FROM records").Scan(&id); err != nil {
		t.Fatalf("query: %v", err)
	}
	if id != "ID_KEEP" {
		t.Errorf("surviving record = %q", id)
	}
}

func TestImportWipesPreviousRun(t *testing.T) {
	s := openTest(t)
	importRecords(t, s, &rules.Record{SourceID: "ID_OLD", Type: "Power"})
	importRecords(t, s, &rules.Record{SourceID: "ID_NEW", Type: "Power"})

	counts, err := s.TableCounts()
	if err != nil {
		t.Fatalf("TableCounts: %v", err)
	}
	if counts["records"] != 1 {
		t.Errorf("records = %d, want 1", counts["records"])
	}
	var id string
	if err := s.DB().QueryRow("SELECT source_id FROM records").Scan(&id); err != nil {
		t.Fatal(err)
	}
	if id != "ID_NEW" {
		t.Errorf("record = %q", id)
	}
}

func TestOccurrencesAndDisplayNames(t *testing.T) {
	s := openTest(t)
	importRecords(t, s,
		&rules.Record{
			SourceID: "ID_A", Name: "Alpha", Type: "Class",
			Grants: []rules.Grant{
				{Granted: "ID_B", GrantedType: "Power", Ordinal: 0},
				{Granted: "ID_B", GrantedType: "Power", Ordinal: 1},
			},
			StatAdds: []rules.StatAdd{{Stat: "hp", Value: "5", Ordinal: 2}},
			Modifies: []rules.Modify{{TargetName: "X", Field: "F", Ordinal: 3}},
		},
		&rules.Record{SourceID: "ID_B", Name: "Beta", Type: "Power"},
	)

	occ, err := s.Occurrences()
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	a := occ["ID_A"]
	if a.AsGranter != 2 || a.InStatAdd != 1 || a.InModify != 1 || a.Total() != 4 {
		t.Errorf("ID_A occurrence = %+v", a)
	}
	b := occ["ID_B"]
	if b.AsGranted != 2 || b.Total() != 2 {
		t.Errorf("ID_B occurrence = %+v", b)
	}

	names, err := s.DisplayNames()
	if err != nil {
		t.Fatalf("DisplayNames: %v", err)
	}
	if names["ID_A"] != "Alpha" || names["ID_B"] != "Beta" {
		t.Errorf("names = %v", names)
	}
}

func TestApplyResolutionFillsAndLogs(t *testing.T) {
	s := openTest(t)
	importRecords(t, s, &rules.Record{
		SourceID: "ID_FMP_CLASS_1", Name: "Cleric", Type: "Class",
		Grants: []rules.Grant{
			{Granted: "ID_FMP_POWER_10", GrantedType: "Power", Ordinal: 0},
		},
	})

	entries := []LogEntry{
		{XMLID: "ID_FMP_CLASS_1", AttemptedID: "class1", ResolvedID: "class1",
			Table: "classes", Status: "matched", Method: "id",
			Occ: Occurrence{AsGranter: 1}},
		{XMLID: "ID_FMP_POWER_10", AttemptedID: "power10",
			Status: "not_found", Occ: Occurrence{AsGranted: 1}},
	}
	if err := s.ApplyResolution(entries, nil); err != nil {
		t.Fatalf("ApplyResolution: %v", err)
	}

	var granterComp sql.NullString
	var grantedComp sql.NullString
	err := s.DB().QueryRow(
		"SELECT granter_compendium_id, granted_compendium_id FROM grants").
		Scan(&granterComp, &grantedComp)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if granterComp.String != "class1" {
		t.Errorf("granter_compendium_id = %+v", granterComp)
	}
	if grantedComp.Valid {
		t.Errorf("granted_compendium_id = %q, want NULL", grantedComp.String)
	}

	counts, err := s.StatusCounts()
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if counts["matched"] != 1 || counts["not_found"] != 1 {
		t.Errorf("status counts = %v", counts)
	}

	if at, err := s.Meta("resolved_at"); err != nil || at == "" {
		t.Errorf("resolved_at = %q, %v", at, err)
	}
}

func TestApplyResolutionIsRerunnable(t *testing.T) {
	s := openTest(t)
	importRecords(t, s, &rules.Record{
		SourceID: "ID_FMP_CLASS_1", Name: "Cleric", Type: "Class",
		Grants: []rules.Grant{
			{Granted: "ID_FMP_POWER_10", GrantedType: "Power", Ordinal: 0},
		},
	})

	entries := []LogEntry{
		{XMLID: "ID_FMP_CLASS_1", AttemptedID: "class1", ResolvedID: "class1",
			Table: "classes", Status: "matched", Method: "id",
			Occ: Occurrence{AsGranter: 1}},
	}
	for i := 0; i < 2; i++ {
		if err := s.ApplyResolution(entries, nil); err != nil {
			t.Fatalf("ApplyResolution run %d: %v", i+1, err)
		}
	}

	// Rerunning must not duplicate log rows or alter the fill.
	counts, err := s.TableCounts()
	if err != nil {
		t.Fatalf("TableCounts: %v", err)
	}
	if counts["_id_resolution_log"] != 1 {
		t.Errorf("log rows = %d, want 1", counts["_id_resolution_log"])
	}
	if counts["grants"] != 1 {
		t.Errorf("grant rows = %d, want 1", counts["grants"])
	}
}

func TestNotFoundOrderedByOccurrence(t *testing.T) {
	s := openTest(t)
	entries := []LogEntry{
		{XMLID: "ID_RARE", AttemptedID: "power1", Status: "not_found",
			Occ: Occurrence{AsGranted: 1}},
		{XMLID: "ID_COMMON", AttemptedID: "power2", Status: "not_found",
			Occ: Occurrence{AsGranted: 9}},
		{XMLID: "ID_OK", AttemptedID: "power3", ResolvedID: "power3",
			Table: "powers", Status: "matched", Method: "id",
			Occ: Occurrence{AsGranted: 5}},
	}
	if err := s.ApplyResolution(entries, nil); err != nil {
		t.Fatalf("ApplyResolution: %v", err)
	}

	nf, err := s.NotFound()
	if err != nil {
		t.Fatalf("NotFound: %v", err)
	}
	if len(nf) != 2 || nf[0].XMLID != "ID_COMMON" || nf[1].XMLID != "ID_RARE" {
		t.Errorf("not_found order = %+v", nf)
	}
}

func TestManualMappingsMirror(t *testing.T) {
	s := openTest(t)
	manual := map[string]string{
		"ID_FMP_POWER_9": "power9000",
		"ID_FMP_FEAT_1":  "feat1",
	}
	if err := s.ApplyResolution(nil, manual); err != nil {
		t.Fatalf("ApplyResolution: %v", err)
	}

	rows, err := s.DB().Query(
		"SELECT xml_id, compendium_id FROM manual_mappings ORDER BY xml_id")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	got := map[string]string{}
	for rows.Next() {
		var xmlID, compID string
		if err := rows.Scan(&xmlID, &compID); err != nil {
			t.Fatal(err)
		}
		got[xmlID] = compID
	}
	if len(got) != 2 || got["ID_FMP_POWER_9"] != "power9000" || got["ID_FMP_FEAT_1"] != "feat1" {
		t.Errorf("mirror = %v", got)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTest(t)
	if err := s.SetMeta("source_xml", "/tmp/combined.dnd40.xml"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	v, err := s.Meta("source_xml")
	if err != nil || v != "/tmp/combined.dnd40.xml" {
		t.Errorf("Meta = %q, %v", v, err)
	}
	v, err = s.Meta("missing")
	if err != nil || v != "" {
		t.Errorf("Meta(missing) = %q, %v", v, err)
	}
}
