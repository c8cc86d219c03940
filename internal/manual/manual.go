// Package manual loads the operator-supplied identifier override list.
package manual

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mappings is the override list: source xml id to compendium entry id.
// An entry here is authoritative; resolution consults it before anything
// else and never second-guesses it against the catalog.
type Mappings map[string]string

// Load reads an override file. The format follows the extension: .yaml/.yml
// is a flat mapping, anything else is two-column CSV with an optional
// header row. A missing path is an empty list, not an error; overrides are
// optional.
func Load(path string) (Mappings, error) {
	if path == "" {
		return Mappings{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Mappings{}, nil
		}
		return nil, fmt.Errorf("failed to open manual mappings: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(f)
	default:
		return loadCSV(f)
	}
}

func loadCSV(r io.Reader) (Mappings, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	m := Mappings{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return m, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manual mappings: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		xmlID := strings.TrimSpace(row[0])
		compID := strings.TrimSpace(row[1])
		if xmlID == "" || compID == "" || xmlID == "xml_id" || strings.HasPrefix(xmlID, "#") {
			continue
		}
		m[xmlID] = compID
	}
}

func loadYAML(r io.Reader) (Mappings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manual mappings: %w", err)
	}
	m := Mappings{}
	for xmlID, compID := range raw {
		xmlID = strings.TrimSpace(xmlID)
		compID = strings.TrimSpace(compID)
		if xmlID != "" && compID != "" {
			m[xmlID] = compID
		}
	}
	return m, nil
}
