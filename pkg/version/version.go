// Package version holds the version of deet and of the binary it was
// built into.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version represents the current version of deet.
type Version struct {
	Major, Minor, Patch string
	// Metadata is appended to the version number after a dash, e.g. rc1.
	Metadata string
	// Build is the VCS revision, filled from the build settings unless
	// set at link time.
	Build string
}

// DeetVersion is the current version of deet.
var DeetVersion = Version{Major: "0", Minor: "3", Patch: "0"}

func (v Version) String() string {
	if v.Build == "" {
		v.Build = vcsRevision()
	}
	ver := fmt.Sprintf("Version: %s.%s.%s", v.Major, v.Minor, v.Patch)
	if v.Metadata != "" {
		ver += "-" + v.Metadata
	}
	if v.Build == "" {
		return ver
	}
	return fmt.Sprintf("%s\nBuild: %s", ver, v.Build)
}

// BuildInfo returns the Go version and the module information of the
// running binary.
func BuildInfo() string {
	return fmt.Sprintf("%s\n%s", runtime.Version(), moduleBuildInfo())
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
