// Package buildinfo carries release metadata injected via ldflags.
package buildinfo

// Empty for local/dev builds; release builds set these at link time.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
