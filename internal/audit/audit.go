// Package audit provides an append-only JSONL trail of pipeline runs.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Entry is one pipeline run.
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Operation string         `json:"op"`               // extract, resolve
	Database  string         `json:"db"`               // grants database path
	Source    string         `json:"source,omitempty"` // input for the run (xml dump, catalog)
	Counts    map[string]int `json:"counts,omitempty"`
	Failures  int            `json:"failures,omitempty"`
}

// Logger appends run entries next to the grants database. A disabled
// logger is a no-op, so callers never need to branch.
type Logger struct {
	path    string
	enabled bool
	mu      sync.Mutex
}

// New creates a logger writing alongside the grants database at dbPath.
func New(dbPath string, enabled bool) *Logger {
	if !enabled {
		return &Logger{}
	}
	return &Logger{path: dbPath + ".audit.log", enabled: true}
}

// Enabled reports whether entries are actually written.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Log appends one entry.
func (l *Logger) Log(entry Entry) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// LogExtract logs one extract run.
func (l *Logger) LogExtract(db, source string, counts map[string]int, failures int) error {
	return l.Log(Entry{
		Operation: "extract",
		Database:  db,
		Source:    source,
		Counts:    counts,
		Failures:  failures,
	})
}

// LogResolve logs one resolve run.
func (l *Logger) LogResolve(db, catalog string, counts map[string]int) error {
	return l.Log(Entry{
		Operation: "resolve",
		Database:  db,
		Source:    catalog,
		Counts:    counts,
	})
}

// Read returns every entry in the log. Malformed lines are skipped; the
// trail is advisory, not load-bearing.
func (l *Logger) Read() ([]Entry, error) {
	if !l.enabled {
		return nil, nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var entries []Entry
	for _, line := range splitLines(string(data)) {
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadSince returns entries at or after the given time.
func (l *Logger) ReadSince(since time.Time) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}
	var filtered []Entry
	for _, entry := range all {
		if !entry.Timestamp.Before(since) {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
