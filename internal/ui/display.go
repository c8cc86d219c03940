package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 120

// DisplayContext holds display parameters, auto-detecting terminal width.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// NewDisplayContext creates a DisplayContext, auto-detecting terminal
// dimensions.
func NewDisplayContext() *DisplayContext {
	fd := os.Stdout.Fd()
	isTTY := term.IsTerminal(fd)

	width := DefaultTermWidth
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	return &DisplayContext{TermWidth: width, IsTTY: isTTY}
}

// Progress rewrites the current line with a transient status message. On a
// non-terminal stream it stays silent so piped output remains clean.
func Progress(format string, args ...interface{}) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return
	}
	fmt.Printf("\r\033[K"+format, args...)
}

// ProgressDone clears any transient progress line.
func ProgressDone() {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return
	}
	fmt.Print("\r\033[K")
}
