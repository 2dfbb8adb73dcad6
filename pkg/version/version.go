// Package version holds build-time version information.
package version

import (
	"fmt"
	"runtime"
)

// Build information. Overridden at link time via -ldflags.
var (
	// BuildVersion is the semantic version of the build.
	BuildVersion = "0.1.0"
	// BuildCommit is the VCS commit the build was produced from.
	BuildCommit = "unknown"
	// BuildDate is the UTC date of the build.
	BuildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information for the running binary.
func Get() Info {
	return Info{
		Version:   BuildVersion,
		Commit:    BuildCommit,
		Date:      BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a single-line human-readable version string.
func String() string {
	return fmt.Sprintf("overpassmcp %s (commit %s, built %s, %s)",
		BuildVersion, BuildCommit, BuildDate, runtime.Version())
}
