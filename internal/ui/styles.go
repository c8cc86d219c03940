package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
// - Default (white/black): primary text
// - Accent (soft purple #A78BFA): highlights, paths, counts
// - Muted (gray): secondary info
// - No colored success/error/warning - unicode symbols only

var (
	// Accent style for file paths and notable values
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
)

// SetAccent overrides the accent color, accepting an ANSI code or hex value.
func SetAccent(color string) {
	if color == "" {
		return
	}
	c := lipgloss.Color(color)
	Accent = lipgloss.NewStyle().Foreground(c)
	AccentBold = lipgloss.NewStyle().Foreground(c).Bold(true)
}
