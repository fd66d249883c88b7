// Package version holds build identification set through -ldflags.
package version

import "fmt"

var (
	// Version is the release version.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
)

// String formats the build identification for -version output and stored
// run metadata.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitSHA)
}
