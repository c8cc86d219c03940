package ui

import "testing"

func TestNewDisplayContextFallsBackWithoutTTY(t *testing.T) {
	// Test binaries run with stdout piped, so detection must fall back.
	dc := NewDisplayContext()
	if dc.IsTTY {
		t.Skip("stdout is a terminal")
	}
	if dc.TermWidth != DefaultTermWidth {
		t.Errorf("TermWidth = %d, want %d", dc.TermWidth, DefaultTermWidth)
	}
}
