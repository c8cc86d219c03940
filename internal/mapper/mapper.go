// Package mapper derives compendium entry ids from the dump's internal ids.
//
// Internal ids follow the shape ID_FMP_<TYPE>_<N>; the compendium keys the
// same entry as <prefix><N> inside a per-kind table. The mapping is purely
// lexical and never consults a database, so a derived candidate is exactly
// that: a candidate, to be verified against the catalog by the caller.
package mapper

import (
	"strings"
)

// Candidate is the derived compendium id for an internal id, with the table
// it should exist in.
type Candidate struct {
	ID    string
	Table string
}

// Reason is the machine-readable explanation for an underivable id. Reasons
// that depend on the id carry the offending fragment in parentheses.
type Reason string

const (
	ReasonEmpty         Reason = "empty_or_invalid"
	ReasonUnparseable   Reason = "unparseable format"
	ReasonNoNumericTail Reason = "no numeric suffix"
)

func reasonNonFMP(xmlID string) Reason {
	parts := strings.SplitN(xmlID, "_", 3)
	prefix := xmlID
	if len(parts) >= 2 {
		prefix = parts[0] + "_" + parts[1]
	} else if len(xmlID) > 30 {
		prefix = xmlID[:30] + "..."
	}
	return Reason("non-FMP prefix (" + prefix + ")")
}

func reasonUnknownType(token string) Reason {
	return Reason("unknown type (" + token + ")")
}

// typeEntry binds a type token to its compendium table and id prefix.
// A nil-table entry marks a known type that has no compendium presence.
type typeEntry struct {
	table  string
	prefix string
}

// typeTable is the fixed mapping from the <TYPE> token to its table and
// prefix. Multi-word tokens appear as they do in the dump (underscored).
var typeTable = map[string]typeEntry{
	"POWER":        {"powers", "power"},
	"FEAT":         {"feats", "feat"},
	"CLASS":        {"classes", "class"},
	"RACE":         {"races", "race"},
	"MAGIC_ITEM":   {"items", "item"},
	"ITEM":         {"items", "item"},
	"PARAGON_PATH": {"paragon_paths", "paragonpath"},
	"EPIC_DESTINY": {"epic_destinies", "epicdestiny"},
	"THEME":        {"themes", "theme"},
	"RITUAL":       {"rituals", "ritual"},
	"BACKGROUND":   {"backgrounds", "background"},
	"DEITY":        {"deities", "deity"},
	"COMPANION":    {"companions", "companion"},

	// Known types with no compendium table. Mapping them is not a failure of
	// the id, it is a property of the type, hence the dedicated reason.
	"RACIAL_TRAIT":      {},
	"CLASS_FEATURE":     {},
	"GRANTS":            {},
	"BUILD_SUGGESTIONS": {},
	"INTERNAL":          {},
}

// groupPrefixes maps type tokens whose entries are split across several id
// prefixes in the compendium. A name-search hit with any listed prefix is
// acceptable for the token.
var groupPrefixes = map[string][]string{
	"MAGIC_ITEM": {"item", "implement", "armor", "weapon", "poison"},
	"ITEM":       {"item", "implement", "armor", "weapon", "poison"},
	"COMPANION":  {"companion", "associate"},
	"FAMILIAR":   {"companion", "associate"},
	"ASSOCIATE":  {"companion", "associate"},
}

// ScanTable pairs a compendium id prefix with the table holding entries of
// that prefix.
type ScanTable struct {
	Prefix string
	Table  string
}

// scanOrder lists the tables worth scanning by display name when the name
// index misses, in priority order. The catalog keeps item-like entries in
// separate per-kind tables.
var scanOrder = []ScanTable{
	{"weapon", "weapons"},
	{"item", "items"},
	{"armor", "armor"},
	{"implement", "implements"},
	{"poison", "poisons"},
	{"power", "powers"},
	{"feat", "feats"},
}

// Map derives the candidate compendium id for xmlID. When no candidate can
// exist, the returned Reason says why; exactly one of the two results is
// meaningful.
func Map(xmlID string) (Candidate, Reason) {
	if xmlID == "" {
		return Candidate{}, ReasonEmpty
	}
	if !strings.Contains(xmlID, "ID_FMP_") {
		return Candidate{}, reasonNonFMP(xmlID)
	}
	rest := strings.Replace(xmlID, "ID_FMP_", "", 1)

	// The numeric entry number is everything after the last underscore; the
	// type token is everything before it.
	i := strings.LastIndex(rest, "_")
	if i < 0 {
		return Candidate{}, ReasonUnparseable
	}
	typeToken, num := rest[:i], rest[i+1:]
	if !allDigits(num) {
		return Candidate{}, ReasonNoNumericTail
	}

	entry, ok := typeTable[typeToken]
	if !ok || entry.table == "" {
		return Candidate{}, reasonUnknownType(typeToken)
	}
	return Candidate{ID: entry.prefix + num, Table: entry.table}, ""
}

// TypeHint returns the <TYPE> token of an FMP id, or "" when the id has no
// parseable token. It is advisory only; name search uses it to constrain
// which prefixes an accepted hit may carry.
func TypeHint(xmlID string) string {
	if !strings.Contains(xmlID, "ID_FMP_") {
		return ""
	}
	rest := xmlID[strings.Index(xmlID, "ID_FMP_")+len("ID_FMP_"):]
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return ""
	}
	return rest[:i]
}

// AcceptablePrefixes returns the compendium id prefixes a name-search hit
// may carry for the given type token. Tokens outside the group families
// accept only their own prefix; an unknown token accepts anything.
func AcceptablePrefixes(typeToken string) []string {
	if p, ok := groupPrefixes[typeToken]; ok {
		return p
	}
	if entry, ok := typeTable[typeToken]; ok && entry.prefix != "" {
		return []string{entry.prefix}
	}
	return nil
}

// ScanTables returns, in priority order, the tables worth scanning by
// display name for hits carrying one of the acceptable prefixes. With no
// acceptable prefixes nothing is worth scanning.
func ScanTables(acceptable []string) []ScanTable {
	if len(acceptable) == 0 {
		return nil
	}
	var out []ScanTable
	for _, st := range scanOrder {
		for _, p := range acceptable {
			if p == st.Prefix || p+"s" == st.Prefix || p == st.Prefix+"s" {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
