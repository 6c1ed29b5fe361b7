// Package buildinfo carries the firmware and tool version stamped in with
// -ldflags "-X ember/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the version, or the commit for untagged builds. It is what
// the boot banner and window title show.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Line formats all fields for a -version flag.
func Line(prog string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", prog, Version, Commit, Date)
}
