// Package testutil provides reusable test fixtures.
package testutil

import (
	"sort"
	"strings"
)

// FakeCatalog is an in-memory catalog for resolver tests. It counts every
// lookup so tests can assert which tiers were consulted.
type FakeCatalog struct {
	// Entries maps table name to entry id to display name.
	Entries map[string]map[string]string

	// Calls counts catalog lookups by kind.
	Calls struct {
		Exists    int
		Anywhere  int
		NameIndex int
		TableScan int
	}
}

// NewFakeCatalog returns an empty catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{Entries: make(map[string]map[string]string)}
}

// Put adds an entry.
func (f *FakeCatalog) Put(table, id, name string) *FakeCatalog {
	if f.Entries[table] == nil {
		f.Entries[table] = make(map[string]string)
	}
	f.Entries[table][id] = name
	return f
}

// TotalCalls is every catalog lookup made so far.
func (f *FakeCatalog) TotalCalls() int {
	return f.Calls.Exists + f.Calls.Anywhere + f.Calls.NameIndex + f.Calls.TableScan
}

// Exists reports whether the table contains the entry id.
func (f *FakeCatalog) Exists(table, id string) bool {
	f.Calls.Exists++
	_, ok := f.Entries[table][id]
	return ok
}

// ExistsAnywhere reports whether any table contains the entry id.
func (f *FakeCatalog) ExistsAnywhere(id string) bool {
	f.Calls.Anywhere++
	for _, entries := range f.Entries {
		if _, ok := entries[id]; ok {
			return true
		}
	}
	return false
}

// IDsForName returns every entry id whose display name lowercases to
// lowerName, across all tables, in stable order.
func (f *FakeCatalog) IDsForName(lowerName string) []string {
	f.Calls.NameIndex++
	var ids []string
	for _, entries := range f.Entries {
		for id, name := range entries {
			if strings.ToLower(name) == lowerName {
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// ScanByName returns entry ids in one table whose display name lowercases
// to lowerName.
func (f *FakeCatalog) ScanByName(table, lowerName string) ([]string, error) {
	f.Calls.TableScan++
	var ids []string
	for id, name := range f.Entries[table] {
		if strings.ToLower(name) == lowerName {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
