package resolver

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/aidanlsb/talon/internal/store"
)

// WriteReview writes the manual-review CSV for unresolved ids: one row per
// entry, highest occurrence first (the caller supplies entries already in
// that order), so review effort lands on the ids that matter most.
func WriteReview(w io.Writer, entries []store.LogEntry, names map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"xml_id", "attempted_compendium_id", "compendium_table",
		"occurrence_count", "name",
	}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			e.XMLID, e.AttemptedID, e.Table,
			strconv.Itoa(e.Occ.Total()), names[e.XMLID],
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
