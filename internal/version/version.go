package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time.
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit, build time and target platform.
// The platform matters because "auto" device selection depends on it.
func Full() string {
	return fmt.Sprintf("trainpi %s (commit: %s, built at: %s, platform: %s/%s)",
		Version, Commit, BuildTime, runtime.GOOS, runtime.GOARCH)
}
