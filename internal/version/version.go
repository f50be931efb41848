// Package version contains build version information, set at build time via ldflags.
package version

// Build information reported by GET /version.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
