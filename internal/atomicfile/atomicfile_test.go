package atomicfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review.csv")

	if err := WriteFile(path, []byte("a,b\n1,2\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}

	// Overwrite must replace, not append, and leave no temp files behind.
	if err := WriteFile(path, []byte("c,d\n"), 0); err != nil {
		t.Fatalf("WriteFile overwrite: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "c,d\n" {
		t.Errorf("content after overwrite = %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
