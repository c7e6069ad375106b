// Package version carries build information for govstandards.
package version

import (
	"fmt"
	"runtime"
)

// Version is injected at build time via
// -X github.com/Version1/uk-gov-tech-standards-mcp/pkg/version.Version
// and defaults to dev for local builds.
var Version = "dev"

var (
	// Commit is the short git commit hash, injected via ldflags.
	Commit = "unknown"

	// Date is the build date in RFC3339 format, injected via ldflags.
	Date = "unknown"

	// GoVersion is the toolchain that built the binary.
	GoVersion = runtime.Version()
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String returns a one-line version string with all build info.
func String() string {
	return fmt.Sprintf("govstandards %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}

// Short returns just the version string.
func Short() string {
	return Version
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
