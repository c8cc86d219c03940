package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
source_xml = "/data/combined.dnd40.xml"
grants_db = "/data/4e_grants.db"
compendium_db = "/data/4e_compendium.db"
manual_mappings = "/data/manual_id_mappings.csv"
audit = false

[ui]
accent = "#A78BFA"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.SourceXML != "/data/combined.dnd40.xml" ||
		cfg.GrantsDB != "/data/4e_grants.db" ||
		cfg.CompendiumDB != "/data/4e_compendium.db" ||
		cfg.ManualMappings != "/data/manual_id_mappings.csv" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AuditEnabled() {
		t.Error("audit = false should disable the trail")
	}
	if cfg.UI.Accent != "#A78BFA" {
		t.Errorf("accent = %q", cfg.UI.Accent)
	}
}

func TestAuditDefaultsOn(t *testing.T) {
	cfg := &Config{}
	if !cfg.AuditEnabled() {
		t.Error("audit should default to enabled")
	}
}

func TestLoadFromBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("grants_db = [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}
