// Package version exposes build-time metadata set via -ldflags.
package version

var (
	// Version is the semantic version of the build.
	Version = "dev"
	// GitCommit is the short commit hash the binary was built from.
	GitCommit = "unknown"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)
