package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/talon/internal/config"
	"github.com/aidanlsb/talon/internal/store"
)

const extractTestDoc = `<D20Rules>
<RulesElement name="Cleric" type="Class" internal-id="ID_FMP_CLASS_1" source="Player's Handbook">
<specific name="Role"> Leader </specific>
<rules>
<grant name="ID_FMP_POWER_10" type="Power"/>
<statadd name="Will Defense" value="+2" type="class"/>
</rules>
</RulesElement>
<RulesElement name="Healing Word" type="Power" internal-id="ID_FMP_POWER_10">
<rules/>
</RulesElement>
</D20Rules>`

func TestRunExtractWritesCountsToMeta(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "dump.xml")
	if err := os.WriteFile(source, []byte(extractTestDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "grants.db")

	off := false
	prevCfg := cfg
	cfg = &config.Config{Audit: &off}
	t.Cleanup(func() { cfg = prevCfg })

	if err := runExtract(source, dbPath, false); err != nil {
		t.Fatalf("runExtract: %v", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	for key, want := range map[string]string{
		"source_xml":           source,
		"count_records":        "2",
		"count_specifics":      "1",
		"count_grants":         "1",
		"count_stat_additions": "1",
		"count_modifies":       "0",
		"count_records_failed": "0",
	} {
		got, err := st.Meta(key)
		if err != nil {
			t.Fatalf("Meta(%q): %v", key, err)
		}
		if got != want {
			t.Errorf("meta %s = %q, want %q", key, got, want)
		}
	}
	if at, err := st.Meta("extracted_at"); err != nil || at == "" {
		t.Errorf("extracted_at = %q, %v", at, err)
	}
}

func TestRunExtractVerifyPasses(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "dump.xml")
	if err := os.WriteFile(source, []byte(extractTestDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	off := false
	prevCfg := cfg
	cfg = &config.Config{Audit: &off}
	t.Cleanup(func() { cfg = prevCfg })

	if err := runExtract(source, filepath.Join(dir, "grants.db"), true); err != nil {
		t.Fatalf("runExtract with verify: %v", err)
	}
}
