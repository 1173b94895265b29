// Package buildinfo exposes version metadata injected at link time.
package buildinfo

// Overridden through -ldflags "-X" by the release build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
