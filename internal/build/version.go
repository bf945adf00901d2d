// Package build provides version and build information for appkit.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import (
	"fmt"
	"runtime"
)

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// UserAgent identifies appkit in outgoing HTTP requests.
func UserAgent() string {
	return fmt.Sprintf("appkit/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
