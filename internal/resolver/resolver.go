// Package resolver reconciles the dump's internal ids against the
// compendium catalog and records every attempt in the resolution log.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/talon/internal/compendium"
	"github.com/aidanlsb/talon/internal/manual"
	"github.com/aidanlsb/talon/internal/mapper"
	"github.com/aidanlsb/talon/internal/namesearch"
	"github.com/aidanlsb/talon/internal/store"
)

// Statuses written to the resolution log.
const (
	StatusMatched           = "matched"
	StatusMatchedManual     = "matched_manual"
	StatusMatchedNameSearch = "matched_name_search"
	StatusNotFound          = "not_found"
	StatusUnmappable        = "unmappable"
)

// Methods written to the resolution log. Name-search matches record which
// lookup surface produced the hit.
const (
	MethodManual    = "manual"
	MethodID        = "id"
	MethodNameIndex = "name_index"
	MethodTableScan = "table_scan"
)

// Summary tallies one resolve run by status.
type Summary struct {
	Total             int
	Matched           int
	MatchedManual     int
	MatchedNameSearch int
	NotFound          int
	Unmappable        int
}

// Resolved is the number of ids that ended in any matched status.
func (s Summary) Resolved() int {
	return s.Matched + s.MatchedManual + s.MatchedNameSearch
}

// Resolver drives one resolution pass over the grants store.
type Resolver struct {
	store     *store.Store
	catalog   compendium.Catalog
	overrides manual.Mappings
}

// New returns a resolver. The catalog is only consulted for ids the
// override list and the lexical mapping cannot settle on their own.
func New(s *store.Store, cat compendium.Catalog, overrides manual.Mappings) *Resolver {
	return &Resolver{store: s, catalog: cat, overrides: overrides}
}

// Run resolves every distinct xml id referenced by the edge tables and
// applies the outcome in one transaction: the rebuilt resolution log, the
// override mirror, and the compendium-id fills. Running twice against an
// unchanged catalog produces identical state.
func (r *Resolver) Run() (Summary, []store.LogEntry, error) {
	occ, err := r.store.Occurrences()
	if err != nil {
		return Summary{}, nil, err
	}
	names, err := r.store.DisplayNames()
	if err != nil {
		return Summary{}, nil, err
	}

	ids := make([]string, 0, len(occ))
	for id := range occ {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum Summary
	entries := make([]store.LogEntry, 0, len(ids))
	for _, id := range ids {
		entry := r.resolveOne(id, names[id])
		entry.Occ = occ[id]
		entries = append(entries, entry)

		sum.Total++
		switch entry.Status {
		case StatusMatched:
			sum.Matched++
		case StatusMatchedManual:
			sum.MatchedManual++
		case StatusMatchedNameSearch:
			sum.MatchedNameSearch++
		case StatusNotFound:
			sum.NotFound++
		case StatusUnmappable:
			sum.Unmappable++
		}
	}

	if err := r.store.ApplyResolution(entries, r.overrides); err != nil {
		return Summary{}, nil, fmt.Errorf("failed to apply resolution: %w", err)
	}
	return sum, entries, nil
}

// resolveOne walks the tier ladder for a single id. The attempted candidate
// is derived lexically up front so even failed and overridden attempts log
// what a direct lookup would have tried.
func (r *Resolver) resolveOne(xmlID, displayName string) store.LogEntry {
	entry := store.LogEntry{XMLID: xmlID}
	cand, why := mapper.Map(xmlID)
	entry.AttemptedID = cand.ID

	// Tier 1: an override is authoritative and settles the id without any
	// catalog traffic.
	if override, ok := r.overrides[xmlID]; ok {
		entry.Status = StatusMatchedManual
		entry.Method = MethodManual
		entry.ResolvedID = override
		return entry
	}

	if why != "" {
		// No candidate can exist for this id; nothing to verify.
		entry.Status = StatusUnmappable
		entry.UnmappableReason = string(why)
		return entry
	}

	// Tier 2: verify the lexical candidate against its implied table.
	if r.catalog.Exists(cand.Table, cand.ID) {
		entry.Status = StatusMatched
		entry.Method = MethodID
		entry.ResolvedID = cand.ID
		entry.Table = cand.Table
		return entry
	}

	// Tier 3: the two vocabularies disagree about this entry's id; fall
	// back to its display name.
	if id, method, variant := r.searchByName(displayName, mapper.TypeHint(xmlID)); id != "" {
		entry.Status = StatusMatchedNameSearch
		entry.Method = method
		entry.MatchedVariant = variant
		entry.ResolvedID = id
		return entry
	}

	entry.Status = StatusNotFound
	entry.Table = cand.Table
	return entry
}

// searchByName tries each name variant against the name index, then against
// direct table scans, constrained by the prefixes acceptable for the type
// hint. It returns the matched entry id, the lookup surface that produced
// it, and the variant that matched.
func (r *Resolver) searchByName(name, typeHint string) (id, method, variant string) {
	if strings.TrimSpace(name) == "" {
		return "", "", ""
	}
	acceptable := mapper.AcceptablePrefixes(typeHint)

	for _, v := range namesearch.Variants(name) {
		for _, hit := range r.catalog.IDsForName(v) {
			if !r.catalog.ExistsAnywhere(hit) {
				continue
			}
			if len(acceptable) > 0 && !hasAnyPrefix(hit, acceptable) {
				continue
			}
			return hit, MethodNameIndex, v
		}

		// The name index often carries only the head of compound names;
		// the per-kind tables keep the full display name.
		for _, st := range mapper.ScanTables(acceptable) {
			hits, err := r.catalog.ScanByName(st.Table, v)
			if err != nil {
				continue
			}
			for _, hit := range hits {
				if r.catalog.ExistsAnywhere(hit) && hasAnyPrefix(hit, acceptable) {
					return hit, MethodTableScan, v
				}
			}
		}
	}
	return "", "", ""
}

func hasAnyPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}
