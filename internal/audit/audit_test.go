package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLogAndRead(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "grants.db")
	l := New(dbPath, true)

	err := l.LogExtract(dbPath, "combined.xml",
		map[string]int{"records": 2, "grants": 3}, 1)
	if err != nil {
		t.Fatalf("LogExtract: %v", err)
	}
	if err := l.LogResolve(dbPath, "compendium.db",
		map[string]int{"matched": 2}); err != nil {
		t.Fatalf("LogResolve: %v", err)
	}

	entries, err := l.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Operation != "extract" || entries[0].Counts["grants"] != 3 ||
		entries[0].Failures != 1 {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Operation != "resolve" || entries[1].Source != "compendium.db" {
		t.Errorf("entry[1] = %+v", entries[1])
	}
}

func TestReadSince(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "grants.db")
	l := New(dbPath, true)

	old := Entry{Timestamp: time.Now().UTC().Add(-time.Hour), Operation: "extract"}
	if err := l.Log(old); err != nil {
		t.Fatal(err)
	}
	if err := l.Log(Entry{Operation: "resolve"}); err != nil {
		t.Fatal(err)
	}

	recent, err := l.ReadSince(time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReadSince: %v", err)
	}
	if len(recent) != 1 || recent[0].Operation != "resolve" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestDisabledLoggerIsNoOp(t *testing.T) {
	l := New("", false)
	if l.Enabled() {
		t.Error("disabled logger reports enabled")
	}
	if err := l.Log(Entry{Operation: "extract"}); err != nil {
		t.Errorf("Log: %v", err)
	}
	entries, err := l.Read()
	if err != nil || entries != nil {
		t.Errorf("Read = %v, %v", entries, err)
	}
}
