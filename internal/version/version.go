/*
Package version provides version information for entrain.

Build metadata is set via ldflags during release builds:
  - Version: git tag (e.g., v0.2.0)
  - Commit: git commit hash (short form)
  - Date: build date in UTC (YYYY-MM-DD)

If not set via ldflags, defaults to a "dev" build.
*/
package version

// Framework is the methodology version stamped into every report.
// Renaming an indicator or changing a baseline constant bumps this;
// downstream reporting keys on it.
const Framework = "0.2.0"

// Version information (set via ldflags during build)
var (
	// Version is the current binary version (e.g., v0.2.0)
	Version = "dev"
	// Commit is the git commit hash (short form)
	Commit = "none"
	// Date is the build date in UTC (YYYY-MM-DD)
	Date = "unknown"
)

// GetVersion returns version information as a formatted string
func GetVersion() string {
	if Version == "dev" {
		return Version + " (development build)"
	}
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
